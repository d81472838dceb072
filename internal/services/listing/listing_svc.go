package listing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"marketplacego/internal/clock"
	"marketplacego/internal/domain"
	"marketplacego/internal/markerrors"
	"marketplacego/internal/store"
)

type IListingService interface {
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	Get(ctx context.Context, id string) (*domain.Listing, error)
	List(ctx context.Context) ([]*domain.Listing, error)
}

type listingService struct {
	store store.ListingStore
	clk   clock.Clock
}

var _ IListingService = (*listingService)(nil)

func NewListingService(s store.ListingStore, clk clock.Clock) IListingService {
	return &listingService{store: s, clk: clk}
}

// Create validates and stores a new listing. The listing type is fixed here
// for good; detail blocks get their initial statuses.
func (svc *listingService) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	if err := validate(l); err != nil {
		return nil, err
	}

	now := svc.clk.Now()
	l.ID = uuid.NewString()
	l.Status = domain.ListingActive
	l.CreatedAt = now
	l.UpdatedAt = now

	switch l.ListingType {
	case domain.TypeAuction:
		a := l.AuctionDetails
		a.Status = domain.AuctionPending
		a.CurrentPrice = a.StartPrice
		a.Bids = nil
		a.Winner = ""
	case domain.TypeRent:
		r := l.RentalDetails
		r.Bookings = nil
		if r.MinimumRentalPeriod < 1 {
			r.MinimumRentalPeriod = 1
		}
	}

	if err := svc.store.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (svc *listingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return svc.store.Get(ctx, id)
}

func (svc *listingService) List(ctx context.Context) ([]*domain.Listing, error) {
	return svc.store.List(ctx)
}

func validate(l *domain.Listing) error {
	switch l.ListingType {
	case domain.TypeSale:
		if l.AuctionDetails != nil || l.RentalDetails != nil {
			return fmt.Errorf("sale listing carries detail block: %w", markerrors.ErrWrongListingType)
		}
	case domain.TypeAuction:
		a := l.AuctionDetails
		if a == nil || l.RentalDetails != nil {
			return fmt.Errorf("auction listing needs exactly auction details: %w", markerrors.ErrWrongListingType)
		}
		if a.StartPrice < 0 {
			return fmt.Errorf("start price %.2f negative: %w", a.StartPrice, markerrors.ErrInvalidRange)
		}
		if a.MinimumBidIncrement <= 0 {
			return fmt.Errorf("minimum bid increment %.2f not positive: %w", a.MinimumBidIncrement, markerrors.ErrInvalidRange)
		}
		if a.BuyNowPrice != 0 && a.BuyNowPrice <= a.StartPrice {
			return fmt.Errorf("buy now price %.2f must exceed start price %.2f: %w",
				a.BuyNowPrice, a.StartPrice, markerrors.ErrInvalidRange)
		}
		if !a.StartTime.Before(a.EndTime) {
			return fmt.Errorf("auction window %s..%s: %w",
				a.StartTime.Format("2006-01-02T15:04"), a.EndTime.Format("2006-01-02T15:04"), markerrors.ErrInvalidRange)
		}
	case domain.TypeRent:
		r := l.RentalDetails
		if r == nil || l.AuctionDetails != nil {
			return fmt.Errorf("rental listing needs exactly rental details: %w", markerrors.ErrWrongListingType)
		}
		if r.DailyRate <= 0 || r.WeeklyRate <= 0 || r.MonthlyRate <= 0 {
			return fmt.Errorf("rental rates must be positive: %w", markerrors.ErrInvalidRange)
		}
		if r.SecurityDeposit < 0 {
			return fmt.Errorf("security deposit %.2f negative: %w", r.SecurityDeposit, markerrors.ErrInvalidRange)
		}
		if !r.AvailableFrom.Before(r.AvailableTo) {
			return fmt.Errorf("rentable window %s..%s: %w",
				r.AvailableFrom.Format("2006-01-02"), r.AvailableTo.Format("2006-01-02"), markerrors.ErrInvalidRange)
		}
		switch r.CancellationPolicy {
		case domain.PolicyFlexible, domain.PolicyModerate, domain.PolicyStrict:
		default:
			return fmt.Errorf("unknown cancellation policy %q: %w", r.CancellationPolicy, markerrors.ErrInvalidRange)
		}
	default:
		return fmt.Errorf("unknown listing type %q: %w", l.ListingType, markerrors.ErrWrongListingType)
	}
	return nil
}
