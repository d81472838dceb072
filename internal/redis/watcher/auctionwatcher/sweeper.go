package auctionwatcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketplacego/internal/clock"
	"marketplacego/internal/domain"
	"marketplacego/internal/services/auction"
	"marketplacego/internal/store"
)

// Sweep is the fallback for missed expiry events: every interval it scans for
// active auctions past their deadline and concludes them. Spawns its own
// goroutine, like the other background loops.
func Sweep(ctx context.Context, st store.ListingStore, svc auction.IAuctionService,
	clk clock.Clock, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				sweepOnce(ctx, st, svc, clk)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, st store.ListingStore, svc auction.IAuctionService, clk clock.Clock) {
	listings, err := st.List(ctx)
	if err != nil {
		zap.L().Warn("auctionwatcher.sweep_list", zap.Error(err))
		return
	}
	now := clk.Now()
	for _, l := range listings {
		a := l.AuctionDetails
		if l.ListingType != domain.TypeAuction || a == nil {
			continue
		}
		if a.Status == domain.AuctionActive && now.After(a.EndTime) {
			endExpired(ctx, svc, l.ID)
		}
	}
}
