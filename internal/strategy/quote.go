package strategy

import (
	"math"
	"time"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// Params tunes the quote engine and the hedge state machine.
type Params struct {
	// PositionLimit is the hard absolute position cap per instrument.
	PositionLimit quant.Lots

	// LotFactor is the maximum quotable lot size (K). Lot sizes scale
	// down from K with inventory pressure and thin liquidity.
	LotFactor int64

	// MaxLiquidity caps the liquidity score before sizing (Lmax).
	MaxLiquidity float64

	// SpreadDefault is the starting book-level index for quote pricing.
	SpreadDefault int

	// LiquidityThresholds, ascending: each threshold the side's
	// liquidity exceeds tightens the quote by one level.
	LiquidityThresholds []float64

	// PositionThresholds, ascending and symmetric around zero: each
	// threshold the position exceeds shifts quotes one level toward
	// inventory reduction.
	PositionThresholds []quant.Lots

	// EmergencyOffsetTicks is the extra tick aggression applied when
	// the inventory adjustment saturates at its risk-reducing extreme.
	EmergencyOffsetTicks int64

	// UnhedgedThreshold: net exposure at or under this is considered
	// hedged and clears the unhedged timer.
	UnhedgedThreshold quant.Lots

	// UnhedgedLimit: exposure unhedged for longer than this triggers
	// the emergency hedge.
	UnhedgedLimit time.Duration

	// EmergencyBuffer: residual net exposure tolerated after an
	// emergency hedge completes.
	EmergencyBuffer quant.Lots
}

// DefaultParams returns the production tuning.
func DefaultParams() Params {
	return Params{
		PositionLimit:        100,
		LotFactor:            30,
		MaxLiquidity:         2e7,
		SpreadDefault:        3,
		LiquidityThresholds:  []float64{2e6, 1e7, 2e7},
		PositionThresholds:   []quant.Lots{-60, -20, 20, 60},
		EmergencyOffsetTicks: 2,
		UnhedgedThreshold:    10,
		UnhedgedLimit:        60 * time.Second,
		EmergencyBuffer:      5,
	}
}

// QuoteTarget is the per-tick output of the quote engine. Ephemeral:
// recomputed on every hedge-instrument update, never persisted by the
// core.
type QuoteTarget struct {
	Ts           quant.TimeStamp `json:"ts"`
	Mid          quant.Price     `json:"mid"`
	Position     quant.Lots      `json:"position"`
	BidPrice     quant.Price     `json:"bid_price"`
	BidLot       quant.Lots      `json:"bid_lot"`
	AskPrice     quant.Price     `json:"ask_price"`
	AskLot       quant.Lots      `json:"ask_lot"`
	BidLiquidity float64         `json:"bid_liquidity"`
	AskLiquidity float64         `json:"ask_liquidity"`
}

// Quoter converts liquidity and inventory into target quotes.
// Stateless; all tuning lives in Params.
type Quoter struct {
	params Params
}

// NewQuoter creates a quote engine with the given tuning.
func NewQuoter(params Params) *Quoter {
	return &Quoter{params: params}
}

// sidePosition returns the position signed so that trading on this
// side increases it: buys accumulate on the bid, sells on the ask.
func sidePosition(pos quant.Lots, side domain.Side) float64 {
	if side == domain.SideSell {
		return float64(-pos)
	}
	return float64(pos)
}

// LotSize computes the quotable lot size for one side.
//
// The inventory factor p falls to zero as the position approaches the
// cap on the risk-increasing side; the liquidity factor l falls to
// zero in an empty book. An argument outside [0,1] means inventory has
// already breached the cap, which forces size 0 instead of a domain
// error.
func (q *Quoter) LotSize(liquidity float64, pos quant.Lots, side domain.Side) quant.Lots {
	limit := float64(q.params.PositionLimit)

	l := liquidity
	if l > q.params.MaxLiquidity {
		l = q.params.MaxLiquidity
	}
	if l < 0 {
		l = 0
	}

	arg := 1 - (sidePosition(pos, side)+limit)/(2*limit)
	if arg <= 0 {
		return 0
	}
	if arg > 1 {
		arg = 1
	}

	pf := math.Sqrt(arg)
	lf := math.Sqrt(l / q.params.MaxLiquidity)

	return quant.Lots(math.Floor(float64(q.params.LotFactor) * pf * lf))
}

// spreadIndex selects the book level to quote at for one side, and
// reports whether the inventory adjustment saturated at its most
// aggressive extreme (inventory at the dangerous end for this side).
func (q *Quoter) spreadIndex(liquidity float64, pos quant.Lots, side domain.Side) (int, bool) {
	s := q.params.SpreadDefault
	for _, th := range q.params.LiquidityThresholds {
		if liquidity > th {
			s--
		}
	}

	half := len(q.params.PositionThresholds) / 2
	adj := -half
	for _, th := range q.params.PositionThresholds {
		if pos > th {
			adj++
		}
	}
	if side == domain.SideSell {
		adj = -adj
	}
	saturated := adj == -half

	s += adj
	if s < 0 {
		s = 0
	}
	if s > domain.Depth-1 {
		s = domain.Depth - 1
	}
	return s, saturated
}

// price resolves a spread index against the hedge book's levels for
// one side. A zero level price means no depth there: do not quote.
func (q *Quoter) price(levels [domain.Depth]quant.Price, idx int, side domain.Side, saturated bool) quant.Price {
	p := levels[idx]
	if p == 0 {
		return 0
	}
	if saturated {
		// Inventory is pinned at the dangerous extreme: push past the
		// selected level for faster reduction.
		off := quant.Ticks(q.params.EmergencyOffsetTicks)
		if side == domain.SideBuy {
			p += off
		} else {
			p -= off
		}
	}
	if p < quant.MinBidNearestTick {
		p = quant.MinBidNearestTick
	}
	if p > quant.MaxAskNearestTick {
		p = quant.MaxAskNearestTick
	}
	return p
}

// Quote computes the full two-sided target from the hedge instrument's
// current snapshot, the primary instrument's per-side liquidity and
// the current primary position. Deterministic for identical inputs.
func (q *Quoter) Quote(hedge domain.Snapshot, bidLiq, askLiq float64, pos quant.Lots) QuoteTarget {
	t := QuoteTarget{
		Mid:          hedge.Mid(),
		Position:     pos,
		BidLiquidity: bidLiq,
		AskLiquidity: askLiq,
	}

	t.BidLot = q.LotSize(bidLiq, pos, domain.SideBuy)
	t.AskLot = q.LotSize(askLiq, pos, domain.SideSell)

	bidIdx, bidSat := q.spreadIndex(bidLiq, pos, domain.SideBuy)
	askIdx, askSat := q.spreadIndex(askLiq, pos, domain.SideSell)

	t.BidPrice = q.price(hedge.BidPrices, bidIdx, domain.SideBuy, bidSat)
	t.AskPrice = q.price(hedge.AskPrices, askIdx, domain.SideSell, askSat)

	return t
}

// SpreadIndexes exposes the per-side level selection for diagnostics
// and tests.
func (q *Quoter) SpreadIndexes(bidLiq, askLiq float64, pos quant.Lots) (bid, ask int) {
	bid, _ = q.spreadIndex(bidLiq, pos, domain.SideBuy)
	ask, _ = q.spreadIndex(askLiq, pos, domain.SideSell)
	return bid, ask
}
