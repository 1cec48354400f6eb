package event

import (
	"sync"

	"maker_go/internal/domain"
)

// Book updates dominate event volume, so they are pooled to keep the
// gateway-to-sequencer path allocation free.
var bookUpdatePool = sync.Pool{
	New: func() any {
		return &BookUpdateEvent{}
	},
}

// AcquireBookUpdateEvent returns a zeroed event from the pool.
func AcquireBookUpdateEvent() *BookUpdateEvent {
	return bookUpdatePool.Get().(*BookUpdateEvent)
}

// ReleaseBookUpdateEvent resets the event and returns it to the pool.
// Callers must not retain the event after release.
func ReleaseBookUpdateEvent(ev *BookUpdateEvent) {
	ev.BaseEvent = BaseEvent{}
	ev.Instrument = 0
	ev.Snapshot = domain.Snapshot{}
	bookUpdatePool.Put(ev)
}

// Warmup pre-populates the pool so the first ticks after startup do
// not allocate.
func Warmup() {
	const n = 64
	evs := make([]*BookUpdateEvent, 0, n)
	for i := 0; i < n; i++ {
		evs = append(evs, AcquireBookUpdateEvent())
	}
	for _, ev := range evs {
		ReleaseBookUpdateEvent(ev)
	}
}
