package venue

import (
	"context"
	"errors"
	"testing"

	"maker_go/internal/event"
	"maker_go/internal/infra"
)

func newTestGateway(limiter *infra.RateLimiter) (*Gateway, chan event.Event) {
	inbox := make(chan event.Event, 8)
	return NewGateway("ws://localhost", "team", "secret", limiter, event.NewPublisher(inbox)), inbox
}

func TestGateway_OnMessageDispatch(t *testing.T) {
	g, inbox := newTestGateway(nil)
	ctx := context.Background()

	g.OnMessage(ctx, []byte(`{"type":"order_filled","order_id":5,"price":"99.00","volume":20,"ts":1}`))
	g.OnMessage(ctx, []byte(`{"type":"order_status","order_id":5,"fill_volume":20,"remaining_volume":1,"fees":"0.40","ts":2}`))
	g.OnMessage(ctx, []byte(`{"type":"hedge_filled","order_id":6,"price":"1.00","volume":10,"ts":3}`))
	g.OnMessage(ctx, []byte(`{"type":"error","order_id":7,"message":"order rejected","ts":4}`))

	fill, ok := (<-inbox).(*event.OrderFilledEvent)
	if !ok || fill.OrderID != 5 || fill.Price != 9900 || fill.Volume != 20 {
		t.Errorf("fill event mismatch: %+v", fill)
	}
	status, ok := (<-inbox).(*event.OrderStatusEvent)
	if !ok || status.RemainingVolume != 1 || status.FeesCents != 40 {
		t.Errorf("status event mismatch: %+v", status)
	}
	hedge, ok := (<-inbox).(*event.HedgeFilledEvent)
	if !ok || hedge.OrderID != 6 || hedge.Price != 100 || hedge.Volume != 10 {
		t.Errorf("hedge event mismatch: %+v", hedge)
	}
	errEv, ok := (<-inbox).(*event.ErrorEvent)
	if !ok || errEv.OrderID != 7 || errEv.Message != "order rejected" {
		t.Errorf("error event mismatch: %+v", errEv)
	}

	// Sequence numbers must be assigned in arrival order.
	if fill.GetSeq() != 1 || status.GetSeq() != 2 || hedge.GetSeq() != 3 || errEv.GetSeq() != 4 {
		t.Errorf("sequence assignment mismatch: %d %d %d %d",
			fill.GetSeq(), status.GetSeq(), hedge.GetSeq(), errEv.GetSeq())
	}
}

func TestGateway_UnknownMessageIgnored(t *testing.T) {
	g, inbox := newTestGateway(nil)
	g.OnMessage(context.Background(), []byte(`{"type":"heartbeat"}`))
	if len(inbox) != 0 {
		t.Error("expected unknown message to be ignored")
	}
}

func TestGateway_RateLimiterDropsCommand(t *testing.T) {
	limiter := infra.NewOrderLimiter(1, 0.001) // effectively no refill
	g, _ := newTestGateway(limiter)

	// First command passes the limiter but fails on the missing
	// connection; that error is not a throttle.
	if err := g.CancelOrder(1); errors.Is(err, ErrThrottled) {
		t.Error("first command should not be throttled")
	}

	// Limiter is now exhausted.
	if err := g.CancelOrder(2); !errors.Is(err, ErrThrottled) {
		t.Errorf("expected ErrThrottled, got %v", err)
	}
}
