package event

import (
	"context"
	"sync"
)

// Publisher numbers events and enqueues them into the sequencer inbox
// as one atomic step. All workers feeding one sequencer must share one
// publisher: numbering and delivery happen under the same lock, so a
// lower-numbered event can never land in the inbox behind a
// higher-numbered one, regardless of which goroutine produced it.
type Publisher struct {
	mu    sync.Mutex
	last  uint64
	inbox chan<- Event
}

// NewPublisher creates a publisher for the given inbox. Numbering
// starts at 1.
func NewPublisher(inbox chan<- Event) *Publisher {
	return &Publisher{inbox: inbox}
}

// TryPublish enqueues the event without blocking. When the inbox is
// full the event is rejected and no sequence number is consumed, so
// shedding leaves no hole in the stream.
func (p *Publisher) TryPublish(ev Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev.SetSeq(p.last + 1)
	select {
	case p.inbox <- ev:
		p.last++
		return true
	default:
		return false
	}
}

// Publish blocks until the event is delivered or ctx ends. The lock is
// held across the send: delivery order must match numbering order even
// under backpressure. An undelivered event consumes no sequence
// number.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev.SetSeq(p.last + 1)
	select {
	case p.inbox <- ev:
		p.last++
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
