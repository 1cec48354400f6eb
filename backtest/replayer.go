package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"maker_go/internal/engine"
	"maker_go/internal/storage"
)

// Replayer feeds a recorded event log back through the sequencer. The
// dispatch path is identical to live trading, so a replayed session
// reproduces every decision the live session made.
type Replayer struct {
	store *storage.EventStore
}

// NewReplayer opens the event log at dbPath.
func NewReplayer(dbPath string) (*Replayer, error) {
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		return nil, err
	}
	return &Replayer{store: store}, nil
}

// Close releases the underlying store.
func (r *Replayer) Close() error {
	return r.store.Close()
}

// RunReplay replays all logged events into the provided sequencer.
func (r *Replayer) RunReplay(ctx context.Context, seq *engine.Sequencer) error {
	events, err := r.store.LoadEvents(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	slog.Info("replay starting", slog.Int("events", len(events)))
	for _, ev := range events {
		seq.ReplayEvent(ev)
	}
	slog.Info("replay complete", slog.Uint64("next_seq", seq.NextSeq()))
	return nil
}
