package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/event"
	"maker_go/internal/monitoring"
	"maker_go/internal/storage"
	"maker_go/internal/strategy"
	"maker_go/pkg/quant"
)

// Trader consumes the ordered event stream. All methods are invoked
// from the sequencer goroutine only.
type Trader interface {
	OnBookUpdate(inst domain.Instrument, snap domain.Snapshot)
	OnOrderFilled(id uint64, price quant.Price, volume quant.Lots)
	OnOrderStatus(id uint64, fillVolume, remainingVolume quant.Lots, feesCents int64)
	OnHedgeFilled(id uint64, price quant.Price, volume quant.Lots)
	OnTradeTicks(inst domain.Instrument, snap domain.Snapshot)
	OnError(id uint64, message string)

	// Dump returns a snapshot of the trader state for post-mortem dumps.
	Dump() strategy.StateDump
}

// Sequencer is the core single-threaded event processor. Gateways and
// simulators publish into the inbox; the sequencer validates ordering,
// persists each event WAL-first, then dispatches it to the trader.
type Sequencer struct {
	inbox   chan event.Event
	nextSeq uint64
	store   *storage.EventStore
	trader  Trader

	checkpointEvery time.Duration
	onCheckpoint    func(nextSeq uint64, dump strategy.StateDump)
}

// NewSequencer creates a sequencer. store may be nil (no persistence);
// trader must not be.
func NewSequencer(inboxSize int, store *storage.EventStore, trader Trader) *Sequencer {
	return &Sequencer{
		inbox:   make(chan event.Event, inboxSize),
		nextSeq: 1,
		store:   store,
		trader:  trader,
	}
}

// Inbox returns the event channel. External workers send events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// SetCheckpoint installs a periodic state capture. fn runs on the
// sequencer goroutine between events, so it may read trader state
// without synchronization. Must be called before Run.
func (s *Sequencer) SetCheckpoint(every time.Duration, fn func(nextSeq uint64, dump strategy.StateDump)) {
	s.checkpointEvery = every
	s.onCheckpoint = fn
}

// Run drains the inbox until ctx is cancelled. MUST run in a single
// goroutine. A panic in the hotpath writes a full state dump and then
// re-panics: trading on after a consistency violation is worse than
// halting.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("sequencer started")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	var checkpointC <-chan time.Time
	if s.onCheckpoint != nil && s.checkpointEvery > 0 {
		ticker := time.NewTicker(s.checkpointEvery)
		defer ticker.Stop()
		checkpointC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("sequencer stopping")
			return
		case <-checkpointC:
			s.onCheckpoint(s.nextSeq, s.trader.Dump())
		case ev := <-s.inbox:
			s.processEvent(ev)
		}
	}
}

// ValidateSequence checks ordering. Stale events are dropped, small
// forward gaps tolerated with a fast-forward, large gaps are fatal.
func (s *Sequencer) ValidateSequence(evSeq uint64) bool {
	expected := s.nextSeq
	if evSeq == expected {
		return true
	}

	diff := int64(evSeq) - int64(expected)
	if diff < 0 {
		slog.Warn("SEQUENCE_DUPLICATE_IGNORED", slog.Uint64("expected", expected), slog.Uint64("got", evSeq))
		return false
	}

	if diff <= 10 {
		slog.Warn("SEQUENCE_GAP_TOLERATED",
			slog.Uint64("expected", expected),
			slog.Uint64("got", evSeq),
			slog.Int64("gap", diff))
		s.nextSeq = evSeq
		return true
	}

	panic(fmt.Sprintf("SEQUENCE_GAP_FATAL: expected %d, got %d", expected, evSeq))
}

func (s *Sequencer) processEvent(ev event.Event) {
	if !s.ValidateSequence(ev.GetSeq()) {
		return
	}

	start := time.Now()

	// WAL-first: an event is only acted on once it is durable, so a
	// crash can always be replayed to the exact pre-crash state.
	if s.store != nil {
		if err := s.store.SaveEvent(context.Background(), ev); err != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
		}
	}

	s.dispatch(ev)
	s.nextSeq++

	monitoring.EventLatency.Observe(time.Since(start).Seconds())

	if be, ok := ev.(*event.BookUpdateEvent); ok {
		event.ReleaseBookUpdateEvent(be)
	}
}

// ReplayEvent processes an event synchronously without WAL logging.
// Used exclusively by recovery and the backtest replayer; the stream
// comes from the WAL, so any gap means the log is corrupt.
func (s *Sequencer) ReplayEvent(ev event.Event) {
	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}
	s.dispatch(ev)
	s.nextSeq++
}

func (s *Sequencer) dispatch(ev event.Event) {
	switch e := ev.(type) {
	case *event.BookUpdateEvent:
		s.trader.OnBookUpdate(e.Instrument, e.Snapshot)
	case *event.OrderFilledEvent:
		s.trader.OnOrderFilled(e.OrderID, e.Price, e.Volume)
	case *event.OrderStatusEvent:
		s.trader.OnOrderStatus(e.OrderID, e.FillVolume, e.RemainingVolume, e.FeesCents)
	case *event.HedgeFilledEvent:
		s.trader.OnHedgeFilled(e.OrderID, e.Price, e.Volume)
	case *event.TradeTicksEvent:
		s.trader.OnTradeTicks(e.Instrument, e.Snapshot)
	case *event.ErrorEvent:
		s.trader.OnError(e.OrderID, e.Message)
	default:
		slog.Warn("unknown event type", slog.Any("type", ev.GetType()))
	}
}

// RecoverFromWAL replays every stored event through the same dispatch
// path as live trading. Callers must wire an execution backend that
// suppresses outbound commands during recovery.
func (s *Sequencer) RecoverFromWAL(ctx context.Context) error {
	if s.store == nil {
		slog.Info("no store configured, starting fresh")
		return nil
	}

	lastSeq, err := s.store.GetLastSeq(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last seq: %w", err)
	}
	if lastSeq == 0 {
		slog.Info("event log is empty, starting fresh")
		return nil
	}

	events, err := s.store.LoadEvents(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	slog.Info("replaying events", slog.Int("count", len(events)))
	for _, ev := range events {
		s.ReplayEvent(ev)
	}

	slog.Info("state recovered", slog.Uint64("next_seq", s.nextSeq))
	return nil
}

// NextSeq returns the sequence number the sequencer expects next.
func (s *Sequencer) NextSeq() uint64 { return s.nextSeq }

// DumpState writes the full internal state to a file for post-mortem.
func (s *Sequencer) DumpState(filename string) {
	slog.Info("dumping internal state", slog.String("file", filename))

	data := struct {
		NextSeq uint64 `json:"next_seq"`
		Trader  any    `json:"trader"`
	}{
		NextSeq: s.nextSeq,
		Trader:  s.trader.Dump(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("failed to marshal state", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("failed to write state dump", slog.Any("error", err))
	}
}
