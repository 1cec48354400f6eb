package venue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	"maker_go/internal/domain"
	"maker_go/internal/event"
	"maker_go/internal/infra"
	"maker_go/pkg/quant"
)

// ErrThrottled is returned when an outbound command is dropped by the
// local rate limiter or circuit breaker. The next quote recompute
// re-issues whatever is still relevant, so callers log and move on.
var ErrThrottled = errors.New("venue: command throttled")

// Gateway is the live execution backend: it submits order commands
// over the execution WebSocket and converts the venue's responses into
// sequencer events.
type Gateway struct {
	base  *infra.WSWorker
	url   string
	team  string
	creds string
	pub   *event.Publisher

	limiter *infra.RateLimiter
	breaker *infra.CircuitBreaker
}

// NewGateway creates a live execution gateway. pub must be the
// sequencer's shared publisher.
func NewGateway(url, team, secret string, limiter *infra.RateLimiter, pub *event.Publisher) *Gateway {
	g := &Gateway{
		url:     url,
		team:    team,
		creds:   secret,
		pub:     pub,
		limiter: limiter,
		breaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("venue_exec")),
	}
	g.base = infra.NewWSWorker(g)
	return g
}

// ID returns the worker identifier.
func (g *Gateway) ID() string { return "VENUE_EXEC" }

// GetURL returns the execution endpoint.
func (g *Gateway) GetURL() string { return g.url }

// Connect starts the WebSocket connection loop.
func (g *Gateway) Connect(ctx context.Context) {
	g.base.Start(ctx)
}

// Disconnect terminates the connection.
func (g *Gateway) Disconnect() {
	g.base.Stop()
}

// OnConnect authenticates the session.
func (g *Gateway) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	b, _ := json.Marshal(loginRequest{Action: "login", Team: g.team, Secret: g.creds})
	return g.base.Write(websocket.TextMessage, b)
}

// OnMessage converts one execution response into a sequencer event.
func (g *Gateway) OnMessage(ctx context.Context, msg []byte) {
	var m execMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		slog.Warn("exec message parse failed", slog.Any("error", err))
		return
	}

	base := event.BaseEvent{Ts: quant.TimeStamp(m.TsMicros)}

	var ev event.Event
	switch m.Type {
	case "order_filled":
		price, err := ParsePriceCents(m.Price.String())
		if err != nil {
			slog.Warn("fill price parse failed", slog.Any("error", err))
			return
		}
		ev = &event.OrderFilledEvent{BaseEvent: base, OrderID: m.OrderID, Price: price, Volume: quant.Lots(m.Volume)}

	case "order_status":
		fees, err := ParseFeeCents(m.Fees.String())
		if err != nil {
			slog.Warn("fees parse failed", slog.Any("error", err))
			return
		}
		ev = &event.OrderStatusEvent{
			BaseEvent:       base,
			OrderID:         m.OrderID,
			FillVolume:      quant.Lots(m.Fill),
			RemainingVolume: quant.Lots(m.Remaining),
			FeesCents:       fees,
		}

	case "hedge_filled":
		price, err := ParsePriceCents(m.Price.String())
		if err != nil {
			slog.Warn("hedge price parse failed", slog.Any("error", err))
			return
		}
		ev = &event.HedgeFilledEvent{BaseEvent: base, OrderID: m.OrderID, Price: price, Volume: quant.Lots(m.Volume)}

	case "error":
		ev = &event.ErrorEvent{BaseEvent: base, OrderID: m.OrderID, Message: m.Message}

	default:
		return
	}

	// Execution events must not be dropped: block until the sequencer
	// drains. Book updates can be shed, fills cannot.
	if err := g.pub.Publish(ctx, ev); err != nil {
		slog.Warn("exec event undelivered, session closing", slog.Any("error", err))
	}
}

// OnPing keeps the session alive.
func (g *Gateway) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, pingDeadline())
}

// InsertOrder submits a new limit order.
func (g *Gateway) InsertOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots, lifespan domain.Lifespan) error {
	return g.send(orderRequest{
		Action:   "insert",
		OrderID:  id,
		Side:     sideString(side),
		Price:    int64(price),
		Volume:   int64(lot),
		Lifespan: lifespanString(lifespan),
	})
}

// CancelOrder requests cancellation of a resting order.
func (g *Gateway) CancelOrder(id uint64) error {
	return g.send(orderRequest{Action: "cancel", OrderID: id})
}

// AmendOrder reduces the open volume of a resting order.
func (g *Gateway) AmendOrder(id uint64, newLot quant.Lots) error {
	return g.send(orderRequest{Action: "amend", OrderID: id, Volume: int64(newLot)})
}

// SendHedgeOrder submits a marketable order on the hedge instrument.
func (g *Gateway) SendHedgeOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots) error {
	return g.send(orderRequest{
		Action:  "hedge",
		OrderID: id,
		Side:    sideString(side),
		Price:   int64(price),
		Volume:  int64(lot),
	})
}

func (g *Gateway) send(req orderRequest) error {
	if !g.breaker.Allow() {
		return ErrThrottled
	}
	if g.limiter != nil && !g.limiter.TryAcquire() {
		slog.Warn("order command rate limited", slog.String("action", req.Action), slog.Uint64("id", req.OrderID))
		return ErrThrottled
	}

	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := g.base.Write(websocket.TextMessage, b); err != nil {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}
