package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event types emitted after successful state transitions.
const (
	EventBidPlaced        = "bid_placed"
	EventOutbid           = "outbid"
	EventAuctionStarted   = "auction_started"
	EventAuctionEnded     = "auction_ended"
	EventAuctionCancelled = "auction_cancelled"
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
)

// Event is a fire-and-forget notification. Delivery is out of scope; the
// publisher only fans it out.
type Event struct {
	Type      string         `json:"event"`
	ListingID string         `json:"listing_id"`
	UserID    string         `json:"user_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

// Notifier publishes events after successful state transitions. Errors are
// logged by implementations, never surfaced to the lifecycle path.
type Notifier interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher fans events out on "listing:<id>:events"; every instance's
// websocket hub subscribes to that channel.
type RedisPublisher struct {
	rdc *redis.Client
}

func NewRedisPublisher(rdc *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdc: rdc}
}

func Channel(listingID string) string { return "listing:" + listingID + ":events" }

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("notify.marshal", zap.String("event", ev.Type), zap.Error(err))
		return
	}
	if err := p.rdc.Publish(ctx, Channel(ev.ListingID), raw).Err(); err != nil {
		zap.L().Warn("notify.publish",
			zap.String("event", ev.Type),
			zap.String("listing_id", ev.ListingID),
			zap.Error(err))
	}
}

// Nop discards all events. Used in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
