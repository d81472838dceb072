package payments

import (
	"context"
	"time"
)

// Gateway abstracts the external payment provider. Implementations must be
// safe for concurrent use.
type Gateway interface {
	RequestCharge(ctx context.Context, amount float64, currency string) (paymentRef string, err error)
	RequestRefund(ctx context.Context, paymentRef string, amount float64) (refundRef string, err error)
}

// Intent kinds.
const (
	KindCharge = "charge"
	KindRefund = "refund"
)

// Intent is the payment side effect recorded atomically with a lifecycle
// transition. Dispatch to the gateway is at-least-once and happens after the
// transition has committed; a failed dispatch never rolls the transition back.
type Intent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	ListingID  string    `json:"listing_id"`
	BookingID  string    `json:"booking_id,omitempty"`
	UserID     string    `json:"user_id"`
	PaymentRef string    `json:"payment_ref,omitempty"` // refunds only
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
