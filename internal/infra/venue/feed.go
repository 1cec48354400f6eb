package venue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	"maker_go/internal/domain"
	"maker_go/internal/event"
	"maker_go/internal/infra"
	"maker_go/pkg/quant"
)

// FeedWorker consumes the market data channel and publishes book and
// trade-tick events into the sequencer inbox.
type FeedWorker struct {
	base *infra.WSWorker
	url  string
	pub  *event.Publisher

	// symbol -> instrument mapping from config
	instruments map[string]domain.Instrument
}

// NewFeedWorker creates a market data worker for the two instruments.
// pub must be the sequencer's shared publisher.
func NewFeedWorker(url, etfSymbol, futureSymbol string, pub *event.Publisher) *FeedWorker {
	w := &FeedWorker{
		url: url,
		pub: pub,
		instruments: map[string]domain.Instrument{
			etfSymbol:    domain.InstrumentETF,
			futureSymbol: domain.InstrumentFuture,
		},
	}
	w.base = infra.NewWSWorker(w)
	return w
}

// ID returns the worker identifier.
func (w *FeedWorker) ID() string { return "VENUE_FEED" }

// GetURL returns the feed endpoint.
func (w *FeedWorker) GetURL() string { return w.url }

// Connect starts the WebSocket connection loop.
func (w *FeedWorker) Connect(ctx context.Context) {
	w.base.Start(ctx)
}

// Disconnect terminates the connection.
func (w *FeedWorker) Disconnect() {
	w.base.Stop()
}

// OnConnect subscribes to both instruments' channels.
func (w *FeedWorker) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	syms := make([]string, 0, len(w.instruments))
	for s := range w.instruments {
		syms = append(syms, s)
	}
	req := subscribeRequest{
		Action:      "subscribe",
		Channels:    []string{"order_book", "trade_ticks"},
		Instruments: syms,
	}
	b, _ := json.Marshal(req)
	return w.base.Write(websocket.TextMessage, b)
}

// OnMessage parses one feed message and forwards it to the sequencer.
func (w *FeedWorker) OnMessage(ctx context.Context, msg []byte) {
	var m feedMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		slog.Warn("feed message parse failed", slog.Any("error", err))
		return
	}

	inst, ok := w.instruments[m.Instrument]
	if !ok {
		return
	}

	snap, err := snapshotFromFeed(&m)
	if err != nil {
		slog.Warn("feed snapshot parse failed", slog.Any("error", err))
		return
	}

	switch m.Type {
	case "order_book":
		ev := event.AcquireBookUpdateEvent()
		ev.Ts = quant.TimeStamp(m.TsMicros)
		ev.Instrument = inst
		ev.Snapshot = snap

		// Inbox full: drop the tick, the next snapshot supersedes it
		// anyway. A rejected publish consumes no sequence number, so
		// shedding never tears a hole in the stream.
		if !w.pub.TryPublish(ev) {
			event.ReleaseBookUpdateEvent(ev)
		}

	case "trade_ticks":
		ev := &event.TradeTicksEvent{
			BaseEvent:  event.BaseEvent{Ts: quant.TimeStamp(m.TsMicros)},
			Instrument: inst,
			Snapshot:   snap,
		}
		w.pub.TryPublish(ev)
	}
}

// OnPing keeps the venue connection alive.
func (w *FeedWorker) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, pingDeadline())
}

func snapshotFromFeed(m *feedMessage) (domain.Snapshot, error) {
	snap := domain.Snapshot{SeqNum: m.SeqNum}

	for i := 0; i < domain.Depth && i < len(m.AskPrices); i++ {
		p, err := ParsePriceCents(m.AskPrices[i].String())
		if err != nil {
			return domain.Snapshot{}, err
		}
		snap.AskPrices[i] = p
	}
	for i := 0; i < domain.Depth && i < len(m.AskVolumes); i++ {
		snap.AskVolumes[i] = quant.Lots(m.AskVolumes[i])
	}
	for i := 0; i < domain.Depth && i < len(m.BidPrices); i++ {
		p, err := ParsePriceCents(m.BidPrices[i].String())
		if err != nil {
			return domain.Snapshot{}, err
		}
		snap.BidPrices[i] = p
	}
	for i := 0; i < domain.Depth && i < len(m.BidVolumes); i++ {
		snap.BidVolumes[i] = quant.Lots(m.BidVolumes[i])
	}
	return snap, nil
}
