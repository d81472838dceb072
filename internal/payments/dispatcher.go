package payments

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"marketplacego/internal/metrics"
)

// RetryPolicy defines exponential backoff parameters for payment dispatch.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the delay before the given attempt (1-based), clamped to
// MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}
	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// Dispatcher drains committed payment intents and executes them against the
// gateway with at-least-once semantics. Intents that exhaust their retries
// are logged and dropped for external reconciliation; listing state is never
// rolled back.
type Dispatcher struct {
	gw     Gateway
	policy RetryPolicy
	queue  chan Intent
}

func NewDispatcher(gw Gateway, policy RetryPolicy) *Dispatcher {
	return &Dispatcher{
		gw:     gw,
		policy: policy,
		queue:  make(chan Intent, 256),
	}
}

// Enqueue hands an intent to the dispatch loop. Never blocks the lifecycle
// path; a full queue is logged and the intent dropped for reconciliation.
func (d *Dispatcher) Enqueue(intents ...Intent) {
	for _, in := range intents {
		select {
		case d.queue <- in:
		default:
			zap.L().Error("payments.queue_full",
				zap.String("intent_id", in.ID),
				zap.String("kind", in.Kind))
		}
	}
}

// Run processes the queue until ctx is cancelled. Start once at boot.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-d.queue:
			d.dispatch(ctx, in)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, in Intent) {
	attempts := d.policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		var (
			ref string
			err error
		)
		switch in.Kind {
		case KindRefund:
			ref, err = d.gw.RequestRefund(ctx, in.PaymentRef, in.Amount)
		default:
			ref, err = d.gw.RequestCharge(ctx, in.Amount, in.Currency)
		}
		if err == nil {
			metrics.IncPaymentDispatched(in.Kind)
			zap.L().Info("payments.dispatched",
				zap.String("intent_id", in.ID),
				zap.String("kind", in.Kind),
				zap.String("provider_ref", ref),
				zap.Float64("amount", in.Amount))
			return
		}

		zap.L().Warn("payments.dispatch_failed",
			zap.String("intent_id", in.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.policy.NextDelay(attempt)):
		}
	}
	metrics.IncPaymentFailed(in.Kind)
	zap.L().Error("payments.dispatch_exhausted",
		zap.String("intent_id", in.ID),
		zap.String("kind", in.Kind),
		zap.Float64("amount", in.Amount))
}
