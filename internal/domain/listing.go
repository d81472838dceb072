package domain

import "time"

// Listing types.
const (
	TypeSale    = "sale"
	TypeRent    = "rent"
	TypeAuction = "auction"
)

// Listing statuses.
const (
	ListingActive   = "active"
	ListingSold     = "sold"
	ListingRented   = "rented"
	ListingInactive = "inactive"
)

// Auction statuses.
const (
	AuctionPending   = "pending"
	AuctionActive    = "active"
	AuctionEnded     = "ended"
	AuctionCancelled = "cancelled"
	AuctionSold      = "sold"
)

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingActive    = "active"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Payment statuses for a booking.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Security deposit statuses.
const (
	DepositPending  = "pending"
	DepositHeld     = "held"
	DepositReleased = "released"
	DepositDeducted = "deducted"
)

// Cancellation policies.
const (
	PolicyFlexible = "flexible"
	PolicyModerate = "moderate"
	PolicyStrict   = "strict"
)

// Listing owns exactly one of AuctionDetails or RentalDetails depending on
// ListingType, which is immutable after creation. Version is bumped by the
// store on every committed mutation.
type Listing struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	ListingType string    `json:"listing_type"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	AuctionDetails *AuctionDetails `json:"auction_details,omitempty"`
	RentalDetails  *RentalDetails  `json:"rental_details,omitempty"`
}

type AuctionDetails struct {
	StartPrice          float64   `json:"start_price"`
	CurrentPrice        float64   `json:"current_price"`
	MinimumBidIncrement float64   `json:"minimum_bid_increment"`
	BuyNowPrice         float64   `json:"buy_now_price,omitempty"` // 0 = not set
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	Status              string    `json:"status"`
	Bids                []Bid     `json:"bids"`
	Winner              string    `json:"winner,omitempty"`
}

// Bid records are append-only; slice order is chronological.
type Bid struct {
	ID        string    `json:"id"`
	Bidder    string    `json:"bidder"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	IsBuyNow  bool      `json:"is_buy_now,omitempty"`
}

type RentalDetails struct {
	DailyRate           float64             `json:"daily_rate"`
	WeeklyRate          float64             `json:"weekly_rate"`
	MonthlyRate         float64             `json:"monthly_rate"`
	MinimumRentalPeriod int                 `json:"minimum_rental_period"` // days
	AvailableFrom       time.Time           `json:"available_from"`
	AvailableTo         time.Time           `json:"available_to"`
	SecurityDeposit     float64             `json:"security_deposit"`
	CancellationPolicy  string              `json:"cancellation_policy"`
	Bookings            []Booking           `json:"bookings"`
	UnavailableDates    []UnavailablePeriod `json:"unavailable_dates"`
}

// Booking is never deleted, only status-transitioned.
type Booking struct {
	ID                    string    `json:"id"`
	Renter                string    `json:"renter"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
	TotalPrice            float64   `json:"total_price"`
	PaymentIntentID       string    `json:"payment_intent_id,omitempty"`
	Status                string    `json:"status"`
	PaymentStatus         string    `json:"payment_status"`
	SecurityDepositStatus string    `json:"security_deposit_status"`
	CancellationReason    string    `json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// UnavailablePeriod is an owner-declared blackout interval.
type UnavailablePeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
}

// FindBooking returns a pointer into the bookings slice, or nil.
func (r *RentalDetails) FindBooking(id string) *Booking {
	for i := range r.Bookings {
		if r.Bookings[i].ID == id {
			return &r.Bookings[i]
		}
	}
	return nil
}

// HighestBid returns the winning bid under chronological-scan semantics: only
// a strictly greater amount replaces the leader, so the earliest bid wins ties.
func (a *AuctionDetails) HighestBid() (Bid, bool) {
	if len(a.Bids) == 0 {
		return Bid{}, false
	}
	top := a.Bids[0]
	for _, b := range a.Bids[1:] {
		if b.Amount > top.Amount {
			top = b
		}
	}
	return top, true
}
