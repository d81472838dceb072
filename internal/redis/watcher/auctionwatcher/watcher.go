package auctionwatcher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplacego/internal/clock"
	"marketplacego/internal/markerrors"
	"marketplacego/internal/services/auction"
)

const timerKeyPrefix = "auc_t:"

// RedisTimers arms one expiring Redis key per active auction. Key expiry is
// the deadline signal the watcher reacts to.
type RedisTimers struct {
	rdc *redis.Client
	clk clock.Clock
}

func NewRedisTimers(rdc *redis.Client, clk clock.Clock) *RedisTimers {
	return &RedisTimers{rdc: rdc, clk: clk}
}

func (t *RedisTimers) Arm(ctx context.Context, listingID string, until time.Time) error {
	ttl := until.Sub(t.clk.Now())
	if ttl <= 0 {
		ttl = time.Second
	}
	return t.rdc.Set(ctx, timerKeyPrefix+listingID, 1, ttl).Err()
}

func (t *RedisTimers) Disarm(ctx context.Context, listingID string) error {
	return t.rdc.Del(ctx, timerKeyPrefix+listingID).Err()
}

// Run listens to key-expiry events and ends auctions whose deadline passed.
// An expired auction that never received a bid is cancelled instead.
// Run must be started once at service boot.
func Run(ctx context.Context, rdb *redis.Client, svc auction.IAuctionService) {
	_ = rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
	ps := rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	defer ps.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ps.Channel():
			if !ok {
				return
			}
			if !strings.HasPrefix(m.Payload, timerKeyPrefix) {
				continue
			}
			endExpired(ctx, svc, strings.TrimPrefix(m.Payload, timerKeyPrefix))
		}
	}
}

func endExpired(ctx context.Context, svc auction.IAuctionService, listingID string) {
	_, err := svc.End(ctx, listingID, "")
	switch {
	case err == nil:
	case errors.Is(err, markerrors.ErrNoBids):
		if cErr := svc.Cancel(ctx, listingID); cErr != nil {
			zap.L().Warn("auctionwatcher.cancel", zap.String("listing_id", listingID), zap.Error(cErr))
		}
	case errors.Is(err, markerrors.ErrInvalidState), errors.Is(err, markerrors.ErrNotFound):
		// already concluded elsewhere
	default:
		zap.L().Error("auctionwatcher.end", zap.String("listing_id", listingID), zap.Error(err))
	}
}
