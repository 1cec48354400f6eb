package quant

import (
	"fmt"
	"math"
)

// Price is an instrument price in integer cents.
// E.g., a quote of $123.00 is Price(12300).
type Price int64

// Lots is an order or position quantity in whole lots.
// Positive positions are net long, negative net short.
type Lots int64

// TimeStamp represents Unix microseconds.
type TimeStamp int64

// TickCents is the venue price increment. All quoted prices are
// whole multiples of the tick.
const TickCents = 100

const (
	// MinimumBid and MaximumAsk bound every valid order price.
	MinimumBid Price = 1
	MaximumAsk Price = math.MaxInt32

	// MinBidNearestTick is the lowest tick-aligned price, used as the
	// limit price of marketable sell hedges.
	MinBidNearestTick = (MinimumBid + TickCents) / TickCents * TickCents

	// MaxAskNearestTick is the highest tick-aligned price, used as the
	// limit price of marketable buy hedges.
	MaxAskNearestTick = MaximumAsk / TickCents * TickCents
)

func (p Price) String() string {
	return fmt.Sprintf("%.2f", float64(p)/TickCents)
}

// Ticks returns n ticks worth of price movement.
func Ticks(n int64) Price {
	return Price(n * TickCents)
}
