package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu         sync.Mutex
	charges    []float64
	refunds    []float64
	failFirstN int
	callCount  int
	alwaysFail bool
}

func (g *fakeGateway) RequestCharge(_ context.Context, amount float64, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callCount++
	if g.alwaysFail || g.callCount <= g.failFirstN {
		return "", errors.New("gateway down")
	}
	g.charges = append(g.charges, amount)
	return "ch_test", nil
}

func (g *fakeGateway) RequestRefund(_ context.Context, _ string, amount float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callCount++
	if g.alwaysFail || g.callCount <= g.failFirstN {
		return "", errors.New("gateway down")
	}
	g.refunds = append(g.refunds, amount)
	return "re_test", nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callCount
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, p.NextDelay(3))
	assert.Equal(t, 800*time.Millisecond, p.NextDelay(4))
	assert.Equal(t, time.Second, p.NextDelay(5), "clamped to MaxDelay")
	assert.Equal(t, time.Second, p.NextDelay(10))
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(0), "attempt floor is 1")
}

func TestRetryPolicy_Defaults(t *testing.T) {
	p := RetryPolicy{}
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
}

func TestDispatcher_ChargeSucceeds(t *testing.T) {
	gw := &fakeGateway{}
	d := NewDispatcher(gw, RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond})

	d.dispatch(context.Background(), Intent{
		ID: "i1", Kind: KindCharge, Amount: 150, Currency: "usd",
	})

	require.Len(t, gw.charges, 1)
	assert.Equal(t, 150.0, gw.charges[0])
}

func TestDispatcher_RefundRoutesToRefund(t *testing.T) {
	gw := &fakeGateway{}
	d := NewDispatcher(gw, RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond})

	d.dispatch(context.Background(), Intent{
		ID: "i1", Kind: KindRefund, PaymentRef: "pay_1", Amount: 40, Currency: "usd",
	})

	require.Len(t, gw.refunds, 1)
	assert.Equal(t, 40.0, gw.refunds[0])
	assert.Empty(t, gw.charges)
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	gw := &fakeGateway{failFirstN: 2}
	d := NewDispatcher(gw, RetryPolicy{MaxRetries: 5, InitialDelay: time.Millisecond, BackoffFactor: 1})

	d.dispatch(context.Background(), Intent{ID: "i1", Kind: KindCharge, Amount: 150})

	assert.Equal(t, 3, gw.calls())
	assert.Len(t, gw.charges, 1)
}

func TestDispatcher_ExhaustsRetries(t *testing.T) {
	gw := &fakeGateway{alwaysFail: true}
	d := NewDispatcher(gw, RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 1})

	d.dispatch(context.Background(), Intent{ID: "i1", Kind: KindCharge, Amount: 150})

	assert.Equal(t, 3, gw.calls())
	assert.Empty(t, gw.charges, "exhausted intent is dropped, not retried forever")
}

func TestDispatcher_RunDrainsQueue(t *testing.T) {
	gw := &fakeGateway{}
	d := NewDispatcher(gw, RetryPolicy{MaxRetries: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Enqueue(
		Intent{ID: "i1", Kind: KindCharge, Amount: 100},
		Intent{ID: "i2", Kind: KindRefund, PaymentRef: "pay_1", Amount: 25},
	)

	require.Eventually(t, func() bool {
		return gw.calls() == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, []float64{100}, gw.charges)
	assert.Equal(t, []float64{25}, gw.refunds)
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	gw := &fakeGateway{}
	d := NewDispatcher(gw, RetryPolicy{MaxRetries: 1})

	// No Run loop draining; overfill the queue and expect Enqueue to return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			d.Enqueue(Intent{ID: "i", Kind: KindCharge, Amount: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
