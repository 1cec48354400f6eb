package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/event"
	"maker_go/pkg/quant"
)

// SimExecution simulates the venue session layer for replay and
// integration runs. Hedge orders fill immediately at their limit price;
// resting orders stay open until cancelled or filled via Fill.
//
// Commands only append to an internal queue and return; a drain
// goroutine publishes the confirmations into the sequencer inbox. The
// trader calls commands from the sequencer goroutine itself, so a
// direct inbox send here could deadlock the engine against a full
// inbox it alone drains.
type SimExecution struct {
	pub *event.Publisher

	mu      sync.Mutex
	open    map[uint64]domain.Order
	pending []event.Event
	wake    chan struct{}
}

// NewSimExecution creates a simulator feeding confirmations through
// the sequencer's shared publisher. The drain goroutine stops when ctx
// ends.
func NewSimExecution(ctx context.Context, pub *event.Publisher) *SimExecution {
	s := &SimExecution{
		pub:  pub,
		open: make(map[uint64]domain.Order),
		wake: make(chan struct{}, 1),
	}
	go s.drain(ctx)
	return s
}

func simBase() event.BaseEvent {
	return event.BaseEvent{Ts: quant.TimeStamp(time.Now().UnixMicro())}
}

// enqueue appends a confirmation and nudges the drain goroutine.
// Never blocks.
func (s *SimExecution) enqueue(ev event.Event) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *SimExecution) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()

			if err := s.pub.Publish(ctx, ev); err != nil {
				return
			}
		}
	}
}

func (s *SimExecution) InsertOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots, lifespan domain.Lifespan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.open[id]; dup {
		return fmt.Errorf("sim: duplicate order id %d", id)
	}
	s.open[id] = domain.Order{ID: id, Price: price, Lot: lot, Side: side}
	return nil
}

func (s *SimExecution) CancelOrder(id uint64) error {
	s.mu.Lock()
	_, ok := s.open[id]
	if ok {
		delete(s.open, id)
	}
	s.mu.Unlock()

	if ok {
		s.enqueue(&event.OrderStatusEvent{BaseEvent: simBase(), OrderID: id})
	}
	// Unknown id: already gone, cancels are advisory.
	return nil
}

func (s *SimExecution) AmendOrder(id uint64, newLot quant.Lots) error {
	s.mu.Lock()
	o, ok := s.open[id]
	if ok {
		o.Lot = newLot
		s.open[id] = o
	}
	s.mu.Unlock()

	if ok {
		s.enqueue(&event.OrderStatusEvent{BaseEvent: simBase(), OrderID: id, RemainingVolume: newLot})
	}
	return nil
}

func (s *SimExecution) SendHedgeOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots) error {
	s.enqueue(&event.HedgeFilledEvent{BaseEvent: simBase(), OrderID: id, Price: price, Volume: lot})
	return nil
}

// Fill simulates a counterparty trading against a resting order and
// emits the fill plus the follow-up status update.
func (s *SimExecution) Fill(id uint64, volume quant.Lots) error {
	s.mu.Lock()
	o, ok := s.open[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("sim: fill on unknown order id %d", id)
	}
	if volume > o.Lot {
		volume = o.Lot
	}
	o.Lot -= volume
	if o.Lot == 0 {
		delete(s.open, id)
	} else {
		s.open[id] = o
	}
	s.mu.Unlock()

	s.enqueue(&event.OrderFilledEvent{BaseEvent: simBase(), OrderID: id, Price: o.Price, Volume: volume})
	s.enqueue(&event.OrderStatusEvent{BaseEvent: simBase(), OrderID: id, FillVolume: volume, RemainingVolume: o.Lot})
	return nil
}

// OpenCount returns the number of simulated resting orders.
func (s *SimExecution) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}
