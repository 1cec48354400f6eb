package domain

import (
	"fmt"

	"maker_go/pkg/quant"
	"maker_go/pkg/safe"
)

// Ledger is the single source of truth for net signed inventory in the
// primary instrument and, separately, in the hedge instrument. It is
// mutated only inside fill-confirmation handlers and read everywhere
// else; all access happens on the sequencer goroutine.
type Ledger struct {
	limit   quant.Lots
	primary quant.Lots
	hedge   quant.Lots
}

// NewLedger creates a flat ledger with the given absolute position limit.
func NewLedger(limit quant.Lots) *Ledger {
	if limit <= 0 {
		panic("ledger: position limit must be positive")
	}
	return &Ledger{limit: limit}
}

// Primary returns the net primary-instrument position.
func (l *Ledger) Primary() quant.Lots { return l.primary }

// Hedge returns the net hedge-instrument position.
func (l *Ledger) Hedge() quant.Lots { return l.hedge }

// Limit returns the configured absolute position limit.
func (l *Ledger) Limit() quant.Lots { return l.limit }

// Net returns the combined unhedged exposure across both instruments.
func (l *Ledger) Net() quant.Lots {
	return quant.Lots(safe.Add(int64(l.primary), int64(l.hedge)))
}

// ApplyPrimaryFill adjusts the primary position by a confirmed fill.
// A resulting position beyond the limit means the pre-trade checks were
// bypassed and the venue accepted the trade anyway: that is a fatal
// invariant violation, not a recoverable condition.
func (l *Ledger) ApplyPrimaryFill(signed quant.Lots) {
	next := quant.Lots(safe.Add(int64(l.primary), int64(signed)))
	if next > l.limit || next < -l.limit {
		panic(fmt.Sprintf("POSITION_LIMIT_BREACH: primary %d + %d exceeds limit %d",
			l.primary, signed, l.limit))
	}
	l.primary = next
}

// ApplyHedgeFill adjusts the hedge position by a confirmed hedge fill.
func (l *Ledger) ApplyHedgeFill(signed quant.Lots) {
	next := quant.Lots(safe.Add(int64(l.hedge), int64(signed)))
	if next > l.limit || next < -l.limit {
		panic(fmt.Sprintf("POSITION_LIMIT_BREACH: hedge %d + %d exceeds limit %d",
			l.hedge, signed, l.limit))
	}
	l.hedge = next
}
