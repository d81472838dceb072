package syncdb

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketplacego/internal/store"
)

const syncInterval = 10 * time.Second

// Run mirrors the in-memory working set into Postgres every 10 s. Spawns its
// own goroutine; stale versions are skipped by the snapshot store.
func Run(ctx context.Context, mem store.ListingStore, snaps *store.SnapshotStore) {
	tk := time.NewTicker(syncInterval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				syncOnce(ctx, mem, snaps)
			}
		}
	}()
}

func syncOnce(ctx context.Context, mem store.ListingStore, snaps *store.SnapshotStore) {
	listings, err := mem.List(ctx)
	if err != nil {
		zap.L().Error("syncdb.list", zap.Error(err))
		return
	}
	for _, l := range listings {
		if err := snaps.Save(ctx, l); err != nil {
			zap.L().Error("syncdb.save", zap.String("listing_id", l.ID), zap.Error(err))
		}
	}
}
