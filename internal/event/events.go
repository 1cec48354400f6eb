package event

import (
	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// Type defines the type of event.
type Type uint16

const (
	EvBookUpdate Type = iota + 1
	EvOrderFilled
	EvOrderStatus
	EvHedgeFilled
	EvTradeTicks
	EvError
)

// Event is the interface for all sequencer events.
type Event interface {
	GetSeq() uint64
	GetTs() quant.TimeStamp
	GetType() Type
	SetSeq(seq uint64)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  quant.TimeStamp `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64         { return e.Seq }
func (e BaseEvent) GetTs() quant.TimeStamp { return e.Ts }

// SetSeq stamps the sequence number. Called by the Publisher only.
func (e *BaseEvent) SetSeq(seq uint64) { e.Seq = seq }

// BookUpdateEvent carries a fresh five-level order book snapshot for
// one instrument.
type BookUpdateEvent struct {
	BaseEvent
	Instrument domain.Instrument `json:"instrument"`
	Snapshot   domain.Snapshot   `json:"snapshot"`
}

func (e BookUpdateEvent) GetType() Type { return EvBookUpdate }

// OrderFilledEvent reports a partial or full fill of a resting order.
type OrderFilledEvent struct {
	BaseEvent
	OrderID uint64      `json:"order_id"`
	Price   quant.Price `json:"price"`
	Volume  quant.Lots  `json:"volume"`
}

func (e OrderFilledEvent) GetType() Type { return EvOrderFilled }

// OrderStatusEvent is the authoritative order-state update.
// RemainingVolume == 0 means the order is gone.
type OrderStatusEvent struct {
	BaseEvent
	OrderID         uint64     `json:"order_id"`
	FillVolume      quant.Lots `json:"fill_volume"`
	RemainingVolume quant.Lots `json:"remaining_volume"`
	FeesCents       int64      `json:"fees_cents"`
}

func (e OrderStatusEvent) GetType() Type { return EvOrderStatus }

// HedgeFilledEvent confirms a hedge order fill at its average price.
type HedgeFilledEvent struct {
	BaseEvent
	OrderID uint64      `json:"order_id"`
	Price   quant.Price `json:"price"`
	Volume  quant.Lots  `json:"volume"`
}

func (e HedgeFilledEvent) GetType() Type { return EvHedgeFilled }

// TradeTicksEvent reports aggregated trading activity per price level.
// Informational only.
type TradeTicksEvent struct {
	BaseEvent
	Instrument domain.Instrument `json:"instrument"`
	Snapshot   domain.Snapshot   `json:"snapshot"`
}

func (e TradeTicksEvent) GetType() Type { return EvTradeTicks }

// ErrorEvent reports a venue rejection. OrderID is zero when the error
// does not pertain to a particular order.
type ErrorEvent struct {
	BaseEvent
	OrderID uint64 `json:"order_id"`
	Message string `json:"message"`
}

func (e ErrorEvent) GetType() Type { return EvError }
