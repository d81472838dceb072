package rental

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"marketplacego/internal/availability"
	"marketplacego/internal/clock"
	"marketplacego/internal/domain"
	"marketplacego/internal/markerrors"
	"marketplacego/internal/metrics"
	"marketplacego/internal/notify"
	"marketplacego/internal/payments"
	"marketplacego/internal/pricing"
	"marketplacego/internal/store"
)

// AvailabilityDTO answers "is it available and at what price" in one shot.
type AvailabilityDTO struct {
	IsAvailable     bool    `json:"is_available"`
	TotalPrice      float64 `json:"total_price"`
	Days            int     `json:"days"`
	Weeks           int     `json:"weeks"`
	RemainingDays   int     `json:"remaining_days"`
	SecurityDeposit float64 `json:"security_deposit"`
}

// BookingResult pairs the stored booking with the payment hold it requested.
type BookingResult struct {
	Booking domain.Booking  `json:"booking"`
	Hold    payments.Intent `json:"hold"`
}

// CancelResult reports the refund computed by the cancellation policy.
type CancelResult struct {
	Booking      domain.Booking `json:"booking"`
	RefundAmount float64        `json:"refund_amount"`
}

type IRentalService interface {
	GetAvailability(ctx context.Context, listingID string, start, end time.Time) (*AvailabilityDTO, error)
	CreateBooking(ctx context.Context, listingID, renterID string, start, end time.Time) (*BookingResult, error)
	ConfirmBooking(ctx context.Context, listingID, bookingID string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, listingID, bookingID, reason string) (*CancelResult, error)
	CompleteRental(ctx context.Context, listingID, bookingID string) (*domain.Booking, error)
}

type rentalService struct {
	store    store.ListingStore
	clk      clock.Clock
	notifier notify.Notifier
	pay      *payments.Dispatcher
	currency string
}

var _ IRentalService = (*rentalService)(nil)

func NewRentalService(s store.ListingStore, clk clock.Clock, n notify.Notifier,
	pay *payments.Dispatcher, currency string) IRentalService {
	return &rentalService{
		store:    s,
		clk:      clk,
		notifier: n,
		pay:      pay,
		currency: currency,
	}
}

func rentalOf(l *domain.Listing) (*domain.RentalDetails, error) {
	if l.ListingType != domain.TypeRent || l.RentalDetails == nil {
		return nil, fmt.Errorf("listing %s is %s: %w", l.ID, l.ListingType, markerrors.ErrWrongListingType)
	}
	return l.RentalDetails, nil
}

// GetAvailability combines the conflict check with a price quote.
func (svc *rentalService) GetAvailability(ctx context.Context, listingID string, start, end time.Time) (*AvailabilityDTO, error) {
	l, err := svc.store.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	r, err := rentalOf(l)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Calculate(pricing.RateSchedule{
		DailyRate:   r.DailyRate,
		WeeklyRate:  r.WeeklyRate,
		MonthlyRate: r.MonthlyRate,
	}, start, end)
	if err != nil {
		return nil, err
	}

	return &AvailabilityDTO{
		IsAvailable:     availability.Check(r, start, end),
		TotalPrice:      quote.TotalPrice,
		Days:            quote.Days,
		Weeks:           quote.Weeks,
		RemainingDays:   quote.RemainingDays,
		SecurityDeposit: r.SecurityDeposit,
	}, nil
}

// CreateBooking inserts a pending booking after the availability check passes
// and records a payment hold for rent plus deposit.
func (svc *rentalService) CreateBooking(ctx context.Context, listingID, renterID string, start, end time.Time) (*BookingResult, error) {
	now := svc.clk.Now()
	res := &BookingResult{}

	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		r, err := rentalOf(l)
		if err != nil {
			return err
		}

		quote, err := pricing.Calculate(pricing.RateSchedule{
			DailyRate:  r.DailyRate,
			WeeklyRate: r.WeeklyRate,
		}, start, end)
		if err != nil {
			return err
		}
		if r.MinimumRentalPeriod > 0 && quote.Days < r.MinimumRentalPeriod {
			return fmt.Errorf("booking of %d days below minimum %d: %w",
				quote.Days, r.MinimumRentalPeriod, markerrors.ErrInvalidRange)
		}
		if !availability.Check(r, start, end) {
			return fmt.Errorf("listing %s %s..%s: %w", l.ID,
				start.Format("2006-01-02"), end.Format("2006-01-02"), markerrors.ErrUnavailable)
		}

		intent := payments.Intent{
			ID:        uuid.NewString(),
			Kind:      payments.KindCharge,
			ListingID: l.ID,
			UserID:    renterID,
			Amount:    quote.TotalPrice + r.SecurityDeposit,
			Currency:  svc.currency,
			Reason:    "rental hold",
			CreatedAt: now,
		}
		booking := domain.Booking{
			ID:                    uuid.NewString(),
			Renter:                renterID,
			StartDate:             start,
			EndDate:               end,
			TotalPrice:            quote.TotalPrice,
			PaymentIntentID:       intent.ID,
			Status:                domain.BookingPending,
			PaymentStatus:         domain.PaymentPending,
			SecurityDepositStatus: domain.DepositPending,
			CreatedAt:             now,
		}
		intent.BookingID = booking.ID
		r.Bookings = append(r.Bookings, booking)
		l.UpdatedAt = now

		res.Booking = booking
		res.Hold = intent
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	if svc.pay != nil {
		svc.pay.Enqueue(res.Hold)
	}
	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventBookingCreated,
		ListingID: listingID,
		UserID:    renterID,
		Payload:   map[string]any{"booking_id": res.Booking.ID, "total_price": res.Booking.TotalPrice},
		At:        now,
	})
	return res, nil
}

// ConfirmBooking moves a pending booking to confirmed, marking the payment
// collected and the deposit held.
func (svc *rentalService) ConfirmBooking(ctx context.Context, listingID, bookingID string) (*domain.Booking, error) {
	now := svc.clk.Now()
	var confirmed domain.Booking

	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		r, err := rentalOf(l)
		if err != nil {
			return err
		}
		b := r.FindBooking(bookingID)
		if b == nil {
			return fmt.Errorf("booking %s on listing %s: %w", bookingID, l.ID, markerrors.ErrNotFound)
		}
		if b.Status != domain.BookingPending {
			return fmt.Errorf("confirm booking %s in state %s: %w", bookingID, b.Status, markerrors.ErrInvalidState)
		}
		b.Status = domain.BookingConfirmed
		b.PaymentStatus = domain.PaymentPaid
		b.SecurityDepositStatus = domain.DepositHeld
		l.UpdatedAt = now
		confirmed = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventBookingConfirmed,
		ListingID: listingID,
		UserID:    confirmed.Renter,
		Payload:   map[string]any{"booking_id": confirmed.ID},
		At:        now,
	})
	return &confirmed, nil
}

// CancelBooking cancels a pending or confirmed booking, computing the refund
// from the listing's cancellation policy. A second cancel fails rather than
// refunding twice.
func (svc *rentalService) CancelBooking(ctx context.Context, listingID, bookingID, reason string) (*CancelResult, error) {
	now := svc.clk.Now()
	res := &CancelResult{}

	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		r, err := rentalOf(l)
		if err != nil {
			return err
		}
		b := r.FindBooking(bookingID)
		if b == nil {
			return fmt.Errorf("booking %s on listing %s: %w", bookingID, l.ID, markerrors.ErrNotFound)
		}
		if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
			return fmt.Errorf("cancel booking %s in state %s: %w", bookingID, b.Status, markerrors.ErrInvalidState)
		}

		res.RefundAmount = pricing.RefundAmount(r.CancellationPolicy, b.TotalPrice, b.StartDate, now)

		b.Status = domain.BookingCancelled
		b.PaymentStatus = domain.PaymentRefunded
		b.SecurityDepositStatus = domain.DepositReleased
		b.CancellationReason = reason
		l.UpdatedAt = now
		res.Booking = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBookingCancelled()
	if svc.pay != nil && res.RefundAmount > 0 {
		svc.pay.Enqueue(payments.Intent{
			ID:         uuid.NewString(),
			Kind:       payments.KindRefund,
			ListingID:  listingID,
			BookingID:  res.Booking.ID,
			UserID:     res.Booking.Renter,
			PaymentRef: res.Booking.PaymentIntentID,
			Amount:     res.RefundAmount,
			Currency:   svc.currency,
			Reason:     "booking cancelled: " + reason,
			CreatedAt:  now,
		})
	}
	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventBookingCancelled,
		ListingID: listingID,
		UserID:    res.Booking.Renter,
		Payload:   map[string]any{"booking_id": res.Booking.ID, "refund": res.RefundAmount},
		At:        now,
	})
	return res, nil
}

// CompleteRental marks a booking finished and releases the deposit. No refund
// logic applies.
func (svc *rentalService) CompleteRental(ctx context.Context, listingID, bookingID string) (*domain.Booking, error) {
	now := svc.clk.Now()
	var completed domain.Booking

	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		r, err := rentalOf(l)
		if err != nil {
			return err
		}
		b := r.FindBooking(bookingID)
		if b == nil {
			return fmt.Errorf("booking %s on listing %s: %w", bookingID, l.ID, markerrors.ErrNotFound)
		}
		if b.Status == domain.BookingCancelled {
			return fmt.Errorf("complete booking %s in state %s: %w", bookingID, b.Status, markerrors.ErrInvalidState)
		}
		b.Status = domain.BookingCompleted
		b.SecurityDepositStatus = domain.DepositReleased
		l.UpdatedAt = now
		completed = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventBookingCompleted,
		ListingID: listingID,
		UserID:    completed.Renter,
		Payload:   map[string]any{"booking_id": completed.ID},
		At:        now,
	})
	return &completed, nil
}
