package domain

import (
	"github.com/shopspring/decimal"

	"maker_go/pkg/quant"
)

// PnL accrues realized cash flow and fees from confirmed fills.
// Fees can be negative: the venue rebates maker volume. Diagnostic
// only; never consulted by the quoting or hedging decisions.
type PnL struct {
	cash decimal.Decimal
	fees decimal.Decimal
}

// NewPnL returns a zeroed accumulator.
func NewPnL() *PnL {
	return &PnL{cash: decimal.Zero, fees: decimal.Zero}
}

// RecordFill books the cash flow of a confirmed fill: sells credit,
// buys debit. Price is in cents, so the exponent is -2.
func (p *PnL) RecordFill(side Side, price quant.Price, volume quant.Lots) {
	cash := decimal.New(int64(price)*int64(volume), -2)
	if side == SideBuy {
		p.cash = p.cash.Sub(cash)
	} else {
		p.cash = p.cash.Add(cash)
	}
}

// RecordFees books the cumulative-fee delta reported by an order
// status update, in cents.
func (p *PnL) RecordFees(feeCents int64) {
	p.fees = p.fees.Add(decimal.New(feeCents, -2))
}

// Cash returns the gross realized cash flow.
func (p *PnL) Cash() decimal.Decimal { return p.cash }

// Fees returns total accrued fees.
func (p *PnL) Fees() decimal.Decimal { return p.fees }

// Net returns realized cash flow net of fees.
func (p *PnL) Net() decimal.Decimal { return p.cash.Sub(p.fees) }
