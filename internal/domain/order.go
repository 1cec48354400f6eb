package domain

import (
	"fmt"

	"maker_go/pkg/quant"
)

// Side of an order.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Sign returns +1 for buys and -1 for sells, the direction a fill
// moves the position.
func (s Side) Sign() quant.Lots {
	if s == SideBuy {
		return 1
	}
	return -1
}

// Lifespan controls how long an inserted order rests on the venue.
type Lifespan uint8

const (
	// GoodForDay rests until filled or cancelled.
	GoodForDay Lifespan = iota
	// FillAndKill trades immediately to the extent possible.
	FillAndKill
)

// Order is a resting or in-flight order owned by exactly one component
// (the quote lifecycle for quotes, the hedge controller for hedges)
// until it is cancelled or fully filled.
type Order struct {
	ID    uint64
	Price quant.Price
	Lot   quant.Lots // remaining open quantity
	Side  Side

	// FeesCents is the venue's running fee total for this order, as
	// last reported by a status update. Negative for maker rebates.
	FeesCents int64
}

func (o Order) String() string {
	return fmt.Sprintf("Order(id=%d side=%s price=%s lot=%d)", o.ID, o.Side, o.Price, o.Lot)
}
