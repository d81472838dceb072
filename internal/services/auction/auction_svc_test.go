package auction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplacego/internal/clock"
	"marketplacego/internal/domain"
	"marketplacego/internal/markerrors"
	"marketplacego/internal/notify"
	"marketplacego/internal/store"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureNotifier) Publish(_ context.Context, ev notify.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *captureNotifier) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeTimers struct {
	mu       sync.Mutex
	armed    map[string]time.Time
	disarmed []string
}

func newFakeTimers() *fakeTimers { return &fakeTimers{armed: make(map[string]time.Time)} }

func (f *fakeTimers) Arm(_ context.Context, listingID string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed[listingID] = until
	return nil
}

func (f *fakeTimers) Disarm(_ context.Context, listingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disarmed = append(f.disarmed, listingID)
	return nil
}

type fakeJournal struct {
	mu   sync.Mutex
	bids []domain.Bid
}

func (f *fakeJournal) Append(_ context.Context, _ string, b domain.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bids = append(f.bids, b)
	return nil
}

type fixture struct {
	svc      IAuctionService
	store    *store.MemoryStore
	clk      *clock.Fake
	notifier *captureNotifier
	timers   *fakeTimers
	journal  *fakeJournal
}

func newFixture(t *testing.T, mutate func(*domain.Listing)) *fixture {
	t.Helper()

	l := &domain.Listing{
		ID:          "listing1",
		SellerID:    "seller1",
		Title:       "vintage amp",
		ListingType: domain.TypeAuction,
		Status:      domain.ListingActive,
		AuctionDetails: &domain.AuctionDetails{
			StartPrice:          100,
			CurrentPrice:        100,
			MinimumBidIncrement: 10,
			StartTime:           baseTime,
			EndTime:             baseTime.Add(24 * time.Hour),
			Status:              domain.AuctionActive,
		},
	}
	if mutate != nil {
		mutate(l)
	}

	f := &fixture{
		store:    store.NewMemoryStore(),
		clk:      clock.NewFake(baseTime),
		notifier: &captureNotifier{},
		timers:   newFakeTimers(),
		journal:  &fakeJournal{},
	}
	require.NoError(t, f.store.Create(context.Background(), l))
	f.svc = NewAuctionService(f.store, f.clk, f.notifier, nil, f.timers, f.journal, "usd")
	return f
}

func (f *fixture) auction(t *testing.T) *domain.AuctionDetails {
	t.Helper()
	l, err := f.store.Get(context.Background(), "listing1")
	require.NoError(t, err)
	return l.AuctionDetails
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("pending goes active and arms the timer", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.Status = domain.AuctionPending
			l.AuctionDetails.CurrentPrice = 0
		})

		updated, err := f.svc.Start(ctx, "listing1")
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionActive, updated.AuctionDetails.Status)
		assert.Equal(t, 100.0, updated.AuctionDetails.CurrentPrice)
		assert.Equal(t, baseTime.Add(24*time.Hour), f.timers.armed["listing1"])
		assert.Equal(t, []string{notify.EventAuctionStarted}, f.notifier.types())
	})

	t.Run("already active is rejected", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Start(ctx, "listing1")
		require.ErrorIs(t, err, markerrors.ErrInvalidState)
	})

	t.Run("unknown listing", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Start(ctx, "nope")
		require.ErrorIs(t, err, markerrors.ErrNotFound)
	})
}

func TestPlaceBid_Admission(t *testing.T) {
	ctx := context.Background()

	// start 100, increment 10: 105 fails both ways of being too low, 110 is
	// the minimum acceptable bid.
	t.Run("below increment is rejected", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 105)
		require.ErrorIs(t, err, markerrors.ErrBidTooLow)
		assert.Empty(t, f.auction(t).Bids, "rejected bid must not be recorded")
	})

	t.Run("equal to current price is rejected", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 100)
		require.ErrorIs(t, err, markerrors.ErrBidTooLow)
	})

	t.Run("minimum acceptable bid", func(t *testing.T) {
		f := newFixture(t, nil)
		res, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		assert.Equal(t, "alice", res.Bid.Bidder)
		assert.Equal(t, 110.0, res.Bid.Amount)
		assert.False(t, res.Bid.IsBuyNow)
		assert.Nil(t, res.Ended)
		assert.Empty(t, res.Outbid, "first bid outbids nobody")

		a := f.auction(t)
		assert.Equal(t, 110.0, a.CurrentPrice)
		require.Len(t, a.Bids, 1)
		assert.NotEmpty(t, a.Bids[0].ID)
	})

	t.Run("current price is monotonic", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		_, err = f.svc.PlaceBid(ctx, "listing1", "bob", 130)
		require.NoError(t, err)
		_, err = f.svc.PlaceBid(ctx, "listing1", "carol", 120)
		require.ErrorIs(t, err, markerrors.ErrBidTooLow)
		assert.Equal(t, 130.0, f.auction(t).CurrentPrice)
	})

	t.Run("outbid reports previous leader", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		res, err := f.svc.PlaceBid(ctx, "listing1", "bob", 125)
		require.NoError(t, err)
		assert.Equal(t, "alice", res.Outbid)
		assert.Contains(t, f.notifier.types(), notify.EventOutbid)
	})

	t.Run("raising own bid is not an outbid", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		res, err := f.svc.PlaceBid(ctx, "listing1", "alice", 125)
		require.NoError(t, err)
		assert.Empty(t, res.Outbid)
	})

	t.Run("pending auction rejects bids", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.Status = domain.AuctionPending
		})
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.ErrorIs(t, err, markerrors.ErrInvalidState)
	})

	t.Run("expired deadline wins over active status", func(t *testing.T) {
		f := newFixture(t, nil)
		f.clk.Advance(25 * time.Hour)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.ErrorIs(t, err, markerrors.ErrAuctionExpired)
	})

	t.Run("wrong listing type", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.ListingType = domain.TypeSale
			l.AuctionDetails = nil
		})
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.ErrorIs(t, err, markerrors.ErrWrongListingType)
	})

	t.Run("accepted bid is journaled", func(t *testing.T) {
		f := newFixture(t, nil)
		res, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		require.Len(t, f.journal.bids, 1)
		assert.Equal(t, res.Bid.ID, f.journal.bids[0].ID)
	})
}

func TestPlaceBid_BuyNowThreshold(t *testing.T) {
	ctx := context.Background()

	t.Run("bid meeting buy-now price ends the auction", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.BuyNowPrice = 300
		})
		res, err := f.svc.PlaceBid(ctx, "listing1", "alice", 300)
		require.NoError(t, err)
		assert.True(t, res.Bid.IsBuyNow)
		require.NotNil(t, res.Ended)
		assert.Equal(t, "alice", res.Ended.Winner)
		assert.Equal(t, 300.0, res.Ended.Amount)
		assert.True(t, res.Ended.IsBuyNow)

		a := f.auction(t)
		assert.Equal(t, domain.AuctionSold, a.Status)
		assert.Equal(t, "alice", a.Winner)
		assert.Equal(t, []string{"listing1"}, f.timers.disarmed)
		assert.Contains(t, f.notifier.types(), notify.EventAuctionEnded)
	})

	t.Run("charge sticks to the buy-now price when exceeded", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.BuyNowPrice = 300
		})
		res, err := f.svc.PlaceBid(ctx, "listing1", "alice", 350)
		require.NoError(t, err)
		require.NotNil(t, res.Ended)
		assert.Equal(t, 300.0, res.Ended.Amount)
	})

	t.Run("no buy-now price set never auto-ends", func(t *testing.T) {
		f := newFixture(t, nil)
		res, err := f.svc.PlaceBid(ctx, "listing1", "alice", 5000)
		require.NoError(t, err)
		assert.False(t, res.Bid.IsBuyNow)
		assert.Nil(t, res.Ended)
		assert.Equal(t, domain.AuctionActive, f.auction(t).Status)
	})
}

func TestBuyNow(t *testing.T) {
	ctx := context.Background()

	t.Run("ends the auction at the buy-now price", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.BuyNowPrice = 300
		})
		res, err := f.svc.BuyNow(ctx, "listing1", "bob")
		require.NoError(t, err)
		assert.Equal(t, 300.0, res.Bid.Amount)
		assert.True(t, res.Bid.IsBuyNow)
		require.NotNil(t, res.Ended)
		assert.Equal(t, "bob", res.Ended.Winner)

		l, err := f.store.Get(ctx, "listing1")
		require.NoError(t, err)
		assert.Equal(t, domain.ListingSold, l.Status)
		assert.Equal(t, domain.AuctionSold, l.AuctionDetails.Status)
	})

	t.Run("without a buy-now price", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.BuyNow(ctx, "listing1", "bob")
		require.ErrorIs(t, err, markerrors.ErrNoBuyNowPrice)
	})

	t.Run("after the auction ended", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.BuyNowPrice = 300
			l.AuctionDetails.Status = domain.AuctionEnded
		})
		_, err := f.svc.BuyNow(ctx, "listing1", "bob")
		require.ErrorIs(t, err, markerrors.ErrInvalidState)
	})
}

func TestEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("highest bidder wins", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		_, err = f.svc.PlaceBid(ctx, "listing1", "bob", 150)
		require.NoError(t, err)

		res, err := f.svc.End(ctx, "listing1", "")
		require.NoError(t, err)
		assert.Equal(t, "bob", res.Winner)
		assert.Equal(t, 150.0, res.Amount)
		assert.False(t, res.IsBuyNow)

		a := f.auction(t)
		assert.Equal(t, domain.AuctionEnded, a.Status)
		assert.Equal(t, "bob", a.Winner)
	})

	t.Run("earliest bid wins a tie", func(t *testing.T) {
		// Equal amounts can only enter the slice via direct state; admission
		// forbids ties. The winner scan must still prefer the earliest.
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.CurrentPrice = 200
			l.AuctionDetails.Bids = []domain.Bid{
				{ID: "b1", Bidder: "alice", Amount: 200, Timestamp: baseTime},
				{ID: "b2", Bidder: "bob", Amount: 200, Timestamp: baseTime.Add(time.Minute)},
			}
		})
		res, err := f.svc.End(ctx, "listing1", "")
		require.NoError(t, err)
		assert.Equal(t, "alice", res.Winner)
	})

	t.Run("explicit winner overrides the scan", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)

		res, err := f.svc.End(ctx, "listing1", "seller-picked")
		require.NoError(t, err)
		assert.Equal(t, "seller-picked", res.Winner)
	})

	t.Run("no bids", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.End(ctx, "listing1", "")
		require.ErrorIs(t, err, markerrors.ErrNoBids)
		assert.Equal(t, domain.AuctionActive, f.auction(t).Status, "failed end leaves auction untouched")
	})

	t.Run("ending twice", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		_, err = f.svc.End(ctx, "listing1", "")
		require.NoError(t, err)
		_, err = f.svc.End(ctx, "listing1", "")
		require.ErrorIs(t, err, markerrors.ErrInvalidState)
	})

	t.Run("no further bids after end", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		_, err = f.svc.End(ctx, "listing1", "")
		require.NoError(t, err)
		_, err = f.svc.PlaceBid(ctx, "listing1", "bob", 200)
		require.ErrorIs(t, err, markerrors.ErrInvalidState)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("active auction cancels and disarms", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.svc.Cancel(ctx, "listing1"))
		assert.Equal(t, domain.AuctionCancelled, f.auction(t).Status)
		assert.Equal(t, []string{"listing1"}, f.timers.disarmed)
		assert.Equal(t, []string{notify.EventAuctionCancelled}, f.notifier.types())
	})

	t.Run("pending auction can be cancelled", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.Status = domain.AuctionPending
		})
		require.NoError(t, f.svc.Cancel(ctx, "listing1"))
	})

	t.Run("ended auction cannot", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.Status = domain.AuctionEnded
		})
		require.ErrorIs(t, f.svc.Cancel(ctx, "listing1"), markerrors.ErrInvalidState)
	})

	t.Run("sold auction cannot", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.Status = domain.AuctionSold
		})
		require.ErrorIs(t, f.svc.Cancel(ctx, "listing1"), markerrors.ErrInvalidState)
	})
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("active auction", func(t *testing.T) {
		f := newFixture(t, func(l *domain.Listing) {
			l.AuctionDetails.BuyNowPrice = 300
		})
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		f.clk.Advance(6 * time.Hour)

		st, err := f.svc.GetStatus(ctx, "listing1")
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionActive, st.Status)
		assert.Equal(t, 110.0, st.CurrentPrice)
		assert.Equal(t, 300.0, st.BuyNowPrice)
		assert.Equal(t, 18*time.Hour, st.TimeLeft)
		assert.True(t, st.IsActive)
		assert.Len(t, st.Bids, 1)
	})

	t.Run("past deadline reports inactive with zero time left", func(t *testing.T) {
		f := newFixture(t, nil)
		f.clk.Advance(48 * time.Hour)

		st, err := f.svc.GetStatus(ctx, "listing1")
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), st.TimeLeft)
		assert.False(t, st.IsActive)
	})

	t.Run("ended auction carries the winner", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.PlaceBid(ctx, "listing1", "alice", 110)
		require.NoError(t, err)
		_, err = f.svc.End(ctx, "listing1", "")
		require.NoError(t, err)

		st, err := f.svc.GetStatus(ctx, "listing1")
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionEnded, st.Status)
		assert.Equal(t, "alice", st.Winner)
		assert.False(t, st.IsActive)
	})
}

func TestPlaceBid_ConcurrentBiddersOneWinnerPerPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	// 20 goroutines race on the same amount; exactly one can be accepted.
	const racers = 20
	var wg sync.WaitGroup
	accepted := make(chan string, racers)
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		bidder := string(rune('a' + i))
		go func() {
			defer wg.Done()
			if _, err := f.svc.PlaceBid(ctx, "listing1", bidder, 110); err == nil {
				accepted <- bidder
			}
		}()
	}
	wg.Wait()
	close(accepted)

	var winners []string
	for w := range accepted {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	a := f.auction(t)
	assert.Equal(t, 110.0, a.CurrentPrice)
	require.Len(t, a.Bids, 1)
	assert.Equal(t, winners[0], a.Bids[0].Bidder)
}
