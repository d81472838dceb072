package syncbid

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplacego/internal/domain"
	"marketplacego/internal/store"
)

const stream = "bids_stream"

// Publisher journals accepted bids onto a Redis stream so that persistence
// never sits on the bid-placement path.
type Publisher struct {
	rdc *redis.Client
}

func NewPublisher(rdc *redis.Client) *Publisher { return &Publisher{rdc: rdc} }

func (p *Publisher) Append(ctx context.Context, listingID string, b domain.Bid) error {
	return p.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"bid_id":     b.ID,
			"listing_id": listingID,
			"bidder":     b.Bidder,
			"amount":     strconv.FormatFloat(b.Amount, 'f', -1, 64),
			"at":         strconv.FormatInt(b.Timestamp.Unix(), 10),
			"buy_now":    strconv.FormatBool(b.IsBuyNow),
		},
	}).Err()
}

// Run tails the Redis stream and persists every bid to Postgres.
func Run(ctx context.Context, rdc *redis.Client, snaps *store.SnapshotStore) {
	go func() {
		lastID := "0-0"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// block up to 2 s for new entries
			res, err := rdc.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   100,
				Block:   2000 * time.Millisecond,
			}).Result()
			if err != nil && err != redis.Nil {
				if ctx.Err() != nil {
					return
				}
				zap.L().Warn("syncbid.xread", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(res) == 0 {
				continue
			}
			entries := res[0].Messages
			persist(ctx, snaps, entries)
			lastID = entries[len(entries)-1].ID
		}
	}()
}

func persist(ctx context.Context, snaps *store.SnapshotStore, msgs []redis.XMessage) {
	for _, m := range msgs {
		listingID, _ := m.Values["listing_id"].(string)
		b := decodeBid(m)
		if err := snaps.InsertBid(ctx, listingID, b); err != nil {
			zap.L().Error("syncbid.persist", zap.String("bid_id", b.ID), zap.Error(err))
		}
	}
}

func decodeBid(m redis.XMessage) domain.Bid {
	str := func(k string) string {
		v, _ := m.Values[k].(string)
		return v
	}
	amount, _ := strconv.ParseFloat(str("amount"), 64)
	at, _ := strconv.ParseInt(str("at"), 10, 64)
	buyNow, _ := strconv.ParseBool(str("buy_now"))
	return domain.Bid{
		ID:        str("bid_id"),
		Bidder:    str("bidder"),
		Amount:    amount,
		Timestamp: time.Unix(at, 0).UTC(),
		IsBuyNow:  buyNow,
	}
}
