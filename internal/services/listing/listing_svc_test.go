package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplacego/internal/clock"
	"marketplacego/internal/domain"
	"marketplacego/internal/markerrors"
	"marketplacego/internal/store"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newSvc(t *testing.T) (IListingService, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewListingService(s, clock.NewFake(baseTime)), s
}

func validAuction() *domain.Listing {
	return &domain.Listing{
		SellerID:    "seller1",
		Title:       "vintage amp",
		ListingType: domain.TypeAuction,
		AuctionDetails: &domain.AuctionDetails{
			StartPrice:          100,
			MinimumBidIncrement: 10,
			BuyNowPrice:         300,
			StartTime:           baseTime,
			EndTime:             baseTime.Add(24 * time.Hour),
		},
	}
}

func validRental() *domain.Listing {
	return &domain.Listing{
		SellerID:    "owner1",
		Title:       "camera kit",
		ListingType: domain.TypeRent,
		RentalDetails: &domain.RentalDetails{
			DailyRate:          10,
			WeeklyRate:         50,
			MonthlyRate:        180,
			AvailableFrom:      baseTime,
			AvailableTo:        baseTime.AddDate(1, 0, 0),
			SecurityDeposit:    100,
			CancellationPolicy: domain.PolicyModerate,
		},
	}
}

func TestCreate_Auction(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc(t)

	created, err := svc.Create(ctx, validAuction())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.ListingActive, created.Status)
	assert.Equal(t, domain.AuctionPending, created.AuctionDetails.Status)
	assert.Equal(t, 100.0, created.AuctionDetails.CurrentPrice)
	assert.Empty(t, created.AuctionDetails.Bids)
	assert.Equal(t, baseTime, created.CreatedAt)
}

func TestCreate_Rental(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc(t)

	created, err := svc.Create(ctx, validRental())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.RentalDetails.MinimumRentalPeriod, "defaults to one day")
}

func TestCreate_Sale(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc(t)

	created, err := svc.Create(ctx, &domain.Listing{
		SellerID:    "seller1",
		Title:       "desk lamp",
		ListingType: domain.TypeSale,
	})
	require.NoError(t, err)
	assert.Nil(t, created.AuctionDetails)
	assert.Nil(t, created.RentalDetails)
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*domain.Listing)
		listing func() *domain.Listing
		wantErr error
	}{
		{
			name:    "unknown type",
			listing: func() *domain.Listing { return &domain.Listing{ListingType: "barter"} },
			wantErr: markerrors.ErrWrongListingType,
		},
		{
			name: "sale with auction details",
			listing: func() *domain.Listing {
				l := validAuction()
				l.ListingType = domain.TypeSale
				return l
			},
			wantErr: markerrors.ErrWrongListingType,
		},
		{
			name:    "auction without details",
			listing: func() *domain.Listing { return &domain.Listing{ListingType: domain.TypeAuction} },
			wantErr: markerrors.ErrWrongListingType,
		},
		{
			name:    "auction with both detail blocks",
			listing: validAuction,
			mutate:  func(l *domain.Listing) { l.RentalDetails = &domain.RentalDetails{} },
			wantErr: markerrors.ErrWrongListingType,
		},
		{
			name:    "negative start price",
			listing: validAuction,
			mutate:  func(l *domain.Listing) { l.AuctionDetails.StartPrice = -1 },
			wantErr: markerrors.ErrInvalidRange,
		},
		{
			name:    "zero bid increment",
			listing: validAuction,
			mutate:  func(l *domain.Listing) { l.AuctionDetails.MinimumBidIncrement = 0 },
			wantErr: markerrors.ErrInvalidRange,
		},
		{
			name:    "buy now at the start price",
			listing: validAuction,
			mutate:  func(l *domain.Listing) { l.AuctionDetails.BuyNowPrice = 100 },
			wantErr: markerrors.ErrInvalidRange,
		},
		{
			name:    "reversed auction window",
			listing: validAuction,
			mutate: func(l *domain.Listing) {
				l.AuctionDetails.EndTime = l.AuctionDetails.StartTime.Add(-time.Hour)
			},
			wantErr: markerrors.ErrInvalidRange,
		},
		{
			name:    "rental without details",
			listing: func() *domain.Listing { return &domain.Listing{ListingType: domain.TypeRent} },
			wantErr: markerrors.ErrWrongListingType,
		},
		{
			name:    "zero daily rate",
			listing: validRental,
			mutate:  func(l *domain.Listing) { l.RentalDetails.DailyRate = 0 },
			wantErr: markerrors.ErrInvalidRange,
		},
		{
			name:    "negative deposit",
			listing: validRental,
			mutate:  func(l *domain.Listing) { l.RentalDetails.SecurityDeposit = -5 },
			wantErr: markerrors.ErrInvalidRange,
		},
		{
			name:    "reversed rentable window",
			listing: validRental,
			mutate: func(l *domain.Listing) {
				l.RentalDetails.AvailableTo = l.RentalDetails.AvailableFrom
			},
			wantErr: markerrors.ErrInvalidRange,
		},
		{
			name:    "unknown cancellation policy",
			listing: validRental,
			mutate:  func(l *domain.Listing) { l.RentalDetails.CancellationPolicy = "whatever" },
			wantErr: markerrors.ErrInvalidRange,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newSvc(t)
			l := tc.listing()
			if tc.mutate != nil {
				tc.mutate(l)
			}
			_, err := svc.Create(ctx, l)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc(t)

	created, err := svc.Create(ctx, validAuction())
	require.NoError(t, err)
	_, err = svc.Create(ctx, validRental())
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, "nope")
	require.ErrorIs(t, err, markerrors.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
