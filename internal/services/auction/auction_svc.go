package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketplacego/internal/clock"
	"marketplacego/internal/domain"
	"marketplacego/internal/markerrors"
	"marketplacego/internal/metrics"
	"marketplacego/internal/notify"
	"marketplacego/internal/payments"
	"marketplacego/internal/store"
)

// StatusDTO is the pure GetStatus projection.
type StatusDTO struct {
	Status       string        `json:"status"`
	CurrentPrice float64       `json:"current_price"`
	BuyNowPrice  float64       `json:"buy_now_price,omitempty"`
	TimeLeft     time.Duration `json:"time_left"`
	IsActive     bool          `json:"is_active"`
	Bids         []domain.Bid  `json:"bids"`
	Winner       string        `json:"winner,omitempty"`
}

// EndResult reports how an auction concluded and what charge it produced.
type EndResult struct {
	Winner   string  `json:"winner"`
	Amount   float64 `json:"amount"`
	IsBuyNow bool    `json:"is_buy_now"`
}

// BidResult is the explicit effect of a bid placement: the accepted bid, the
// previously leading bidder (for outbid notifications), and the end outcome
// when the bid reached the buy-now threshold.
type BidResult struct {
	Bid    domain.Bid `json:"bid"`
	Outbid string     `json:"outbid,omitempty"`
	Ended  *EndResult `json:"ended,omitempty"`
}

// DeadlineTimers arms the external deadline sweep for an active auction.
type DeadlineTimers interface {
	Arm(ctx context.Context, listingID string, until time.Time) error
	Disarm(ctx context.Context, listingID string) error
}

// Journal records accepted bids for asynchronous persistence.
type Journal interface {
	Append(ctx context.Context, listingID string, b domain.Bid) error
}

type IAuctionService interface {
	Start(ctx context.Context, listingID string) (*domain.Listing, error)
	PlaceBid(ctx context.Context, listingID, bidderID string, amount float64) (*BidResult, error)
	BuyNow(ctx context.Context, listingID, buyerID string) (*BidResult, error)
	End(ctx context.Context, listingID, winnerID string) (*EndResult, error)
	Cancel(ctx context.Context, listingID string) error
	GetStatus(ctx context.Context, listingID string) (*StatusDTO, error)
}

type auctionService struct {
	store    store.ListingStore
	clk      clock.Clock
	notifier notify.Notifier
	pay      *payments.Dispatcher
	timers   DeadlineTimers
	journal  Journal
	currency string
}

var _ IAuctionService = (*auctionService)(nil)

func NewAuctionService(s store.ListingStore, clk clock.Clock, n notify.Notifier,
	pay *payments.Dispatcher, timers DeadlineTimers, journal Journal, currency string) IAuctionService {
	return &auctionService{
		store:    s,
		clk:      clk,
		notifier: n,
		pay:      pay,
		timers:   timers,
		journal:  journal,
		currency: currency,
	}
}

func auctionOf(l *domain.Listing) (*domain.AuctionDetails, error) {
	if l.ListingType != domain.TypeAuction || l.AuctionDetails == nil {
		return nil, fmt.Errorf("listing %s is %s: %w", l.ID, l.ListingType, markerrors.ErrWrongListingType)
	}
	return l.AuctionDetails, nil
}

// Start moves a pending auction to active and arms the deadline timer.
func (svc *auctionService) Start(ctx context.Context, listingID string) (*domain.Listing, error) {
	var endsAt time.Time
	updated, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		a, err := auctionOf(l)
		if err != nil {
			return err
		}
		if a.Status != domain.AuctionPending {
			return fmt.Errorf("start auction %s in state %s: %w", l.ID, a.Status, markerrors.ErrInvalidState)
		}
		a.Status = domain.AuctionActive
		a.CurrentPrice = a.StartPrice
		l.UpdatedAt = svc.clk.Now()
		endsAt = a.EndTime
		return nil
	})
	if err != nil {
		return nil, err
	}

	if svc.timers != nil {
		if err := svc.timers.Arm(ctx, listingID, endsAt); err != nil {
			zap.L().Warn("auction.arm_timer", zap.String("listing_id", listingID), zap.Error(err))
		}
	}
	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventAuctionStarted,
		ListingID: listingID,
		Payload:   map[string]any{"ends_at": endsAt},
		At:        svc.clk.Now(),
	})
	return updated, nil
}

// PlaceBid admits a bid against an active auction. An accepted bid meeting or
// exceeding the buy-now price ends the auction on the spot; the caller sees
// both outcomes in the returned BidResult.
func (svc *auctionService) PlaceBid(ctx context.Context, listingID, bidderID string, amount float64) (*BidResult, error) {
	now := svc.clk.Now()
	res := &BidResult{}

	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		a, err := auctionOf(l)
		if err != nil {
			return err
		}
		if a.Status != domain.AuctionActive {
			return fmt.Errorf("bid on auction %s in state %s: %w", l.ID, a.Status, markerrors.ErrInvalidState)
		}
		if now.After(a.EndTime) {
			return fmt.Errorf("bid on auction %s past %s: %w", l.ID, a.EndTime.Format(time.RFC3339), markerrors.ErrAuctionExpired)
		}
		if amount <= a.CurrentPrice || amount < a.CurrentPrice+a.MinimumBidIncrement {
			return fmt.Errorf("bid %.2f on auction %s needs at least %.2f: %w",
				amount, l.ID, a.CurrentPrice+a.MinimumBidIncrement, markerrors.ErrBidTooLow)
		}

		if top, ok := a.HighestBid(); ok && top.Bidder != bidderID {
			res.Outbid = top.Bidder
		}

		bid := domain.Bid{
			ID:        uuid.NewString(),
			Bidder:    bidderID,
			Amount:    amount,
			Timestamp: now,
		}
		if a.BuyNowPrice > 0 && amount >= a.BuyNowPrice {
			bid.IsBuyNow = true
		}
		a.Bids = append(a.Bids, bid)
		a.CurrentPrice = amount
		l.UpdatedAt = now
		res.Bid = bid

		if bid.IsBuyNow {
			res.Ended = endLocked(l, a, bidderID, true)
		}
		return nil
	})
	if err != nil {
		metrics.IncBidRejected(rejectReason(err))
		return nil, err
	}

	metrics.IncBidPlaced()
	if svc.journal != nil {
		if err := svc.journal.Append(ctx, listingID, res.Bid); err != nil {
			zap.L().Warn("auction.journal", zap.String("listing_id", listingID), zap.Error(err))
		}
	}
	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventBidPlaced,
		ListingID: listingID,
		UserID:    bidderID,
		Payload:   map[string]any{"amount": amount, "bid_id": res.Bid.ID},
		At:        now,
	})
	if res.Outbid != "" {
		svc.notifier.Publish(ctx, notify.Event{
			Type:      notify.EventOutbid,
			ListingID: listingID,
			UserID:    res.Outbid,
			Payload:   map[string]any{"amount": amount},
			At:        now,
		})
	}
	if res.Ended != nil {
		svc.settle(ctx, listingID, res.Ended, now)
	}
	return res, nil
}

// BuyNow records a buy-now bid and ends the auction with the buyer as winner.
func (svc *auctionService) BuyNow(ctx context.Context, listingID, buyerID string) (*BidResult, error) {
	now := svc.clk.Now()
	res := &BidResult{}

	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		a, err := auctionOf(l)
		if err != nil {
			return err
		}
		if a.BuyNowPrice <= 0 {
			return fmt.Errorf("auction %s: %w", l.ID, markerrors.ErrNoBuyNowPrice)
		}
		if a.Status != domain.AuctionActive {
			return fmt.Errorf("buy now on auction %s in state %s: %w", l.ID, a.Status, markerrors.ErrInvalidState)
		}

		if top, ok := a.HighestBid(); ok && top.Bidder != buyerID {
			res.Outbid = top.Bidder
		}

		bid := domain.Bid{
			ID:        uuid.NewString(),
			Bidder:    buyerID,
			Amount:    a.BuyNowPrice,
			Timestamp: now,
			IsBuyNow:  true,
		}
		a.Bids = append(a.Bids, bid)
		a.CurrentPrice = a.BuyNowPrice
		l.UpdatedAt = now
		res.Bid = bid
		res.Ended = endLocked(l, a, buyerID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBidPlaced()
	if svc.journal != nil {
		if err := svc.journal.Append(ctx, listingID, res.Bid); err != nil {
			zap.L().Warn("auction.journal", zap.String("listing_id", listingID), zap.Error(err))
		}
	}
	svc.settle(ctx, listingID, res.Ended, now)
	return res, nil
}

// End concludes an active auction. With an empty winnerID the winner is the
// bidder of the highest bid, earliest bid winning ties; ending an auction
// with no bids fails.
func (svc *auctionService) End(ctx context.Context, listingID, winnerID string) (*EndResult, error) {
	now := svc.clk.Now()
	var res *EndResult

	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		a, err := auctionOf(l)
		if err != nil {
			return err
		}
		if a.Status != domain.AuctionActive {
			return fmt.Errorf("end auction %s in state %s: %w", l.ID, a.Status, markerrors.ErrInvalidState)
		}
		winner := winnerID
		if winner == "" {
			top, ok := a.HighestBid()
			if !ok {
				return fmt.Errorf("end auction %s: %w", l.ID, markerrors.ErrNoBids)
			}
			winner = top.Bidder
		}
		l.UpdatedAt = now
		res = endLocked(l, a, winner, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.settle(ctx, listingID, res, now)
	return res, nil
}

// Cancel withdraws an auction that has not yet concluded.
func (svc *auctionService) Cancel(ctx context.Context, listingID string) error {
	now := svc.clk.Now()
	_, err := svc.store.Update(ctx, listingID, func(l *domain.Listing) error {
		a, err := auctionOf(l)
		if err != nil {
			return err
		}
		if a.Status == domain.AuctionEnded || a.Status == domain.AuctionSold {
			return fmt.Errorf("cancel auction %s in state %s: %w", l.ID, a.Status, markerrors.ErrInvalidState)
		}
		a.Status = domain.AuctionCancelled
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}

	if svc.timers != nil {
		_ = svc.timers.Disarm(ctx, listingID)
	}
	metrics.IncAuctionEnded("cancelled")
	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventAuctionCancelled,
		ListingID: listingID,
		At:        now,
	})
	return nil
}

// GetStatus is a pure projection; it never mutates.
func (svc *auctionService) GetStatus(ctx context.Context, listingID string) (*StatusDTO, error) {
	l, err := svc.store.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	a, err := auctionOf(l)
	if err != nil {
		return nil, err
	}

	timeLeft := a.EndTime.Sub(svc.clk.Now())
	if timeLeft < 0 {
		timeLeft = 0
	}
	return &StatusDTO{
		Status:       a.Status,
		CurrentPrice: a.CurrentPrice,
		BuyNowPrice:  a.BuyNowPrice,
		TimeLeft:     timeLeft,
		IsActive:     a.Status == domain.AuctionActive && timeLeft > 0,
		Bids:         a.Bids,
		Winner:       a.Winner,
	}, nil
}

// endLocked applies the end transition in place. Callers hold the listing's
// update lock and have already validated the active state.
func endLocked(l *domain.Listing, a *domain.AuctionDetails, winnerID string, isBuyNow bool) *EndResult {
	amount := a.CurrentPrice
	if isBuyNow {
		amount = a.BuyNowPrice
		a.Status = domain.AuctionSold
	} else {
		a.Status = domain.AuctionEnded
	}
	a.Winner = winnerID
	l.Status = domain.ListingSold
	return &EndResult{Winner: winnerID, Amount: amount, IsBuyNow: isBuyNow}
}

// settle runs the post-commit effects of an ended auction: the winner's
// charge, the deadline timer teardown, and notifications.
func (svc *auctionService) settle(ctx context.Context, listingID string, end *EndResult, now time.Time) {
	if svc.timers != nil {
		_ = svc.timers.Disarm(ctx, listingID)
	}

	outcome := "ended"
	if end.IsBuyNow {
		outcome = "buy_now"
	}
	metrics.IncAuctionEnded(outcome)

	if svc.pay != nil {
		svc.pay.Enqueue(payments.Intent{
			ID:        uuid.NewString(),
			Kind:      payments.KindCharge,
			ListingID: listingID,
			UserID:    end.Winner,
			Amount:    end.Amount,
			Currency:  svc.currency,
			Reason:    "auction " + outcome,
			CreatedAt: now,
		})
	}

	svc.notifier.Publish(ctx, notify.Event{
		Type:      notify.EventAuctionEnded,
		ListingID: listingID,
		UserID:    end.Winner,
		Payload: map[string]any{
			"winner":     end.Winner,
			"amount":     end.Amount,
			"is_buy_now": end.IsBuyNow,
		},
		At: now,
	})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, markerrors.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, markerrors.ErrAuctionExpired):
		return "expired"
	case errors.Is(err, markerrors.ErrInvalidState):
		return "not_active"
	default:
		return "other"
	}
}
