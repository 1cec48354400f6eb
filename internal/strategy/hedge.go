package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/monitoring"
	"maker_go/pkg/quant"
	"maker_go/pkg/safe"
)

// hedgeAfterFill responds to a confirmed primary fill by moving the
// hedge position toward the primary position. A buy on the primary is
// offset by a hedge sell and vice versa, at a marketable price.
func (t *Trader) hedgeAfterFill(fillSide domain.Side, volume quant.Lots) {
	lot := t.hedgeRatioLots(volume)
	if lot <= 0 {
		return
	}

	side := fillSide.Opposite()
	lot = t.capToHedgeHeadroom(side, lot)
	if lot <= 0 {
		return
	}

	t.sendHedge(side, lot, false)
}

// hedgeRatioLots sizes the hedge for a primary fill. When both books
// are ready and moving, the ratio of their short-term mid drifts
// scales the hedge; otherwise fall back to the fixed half fraction.
func (t *Trader) hedgeRatioLots(volume quant.Lots) quant.Lots {
	half := volume / 2

	if !t.etf.Ready() || !t.future.Ready() {
		return half
	}

	etfDelta := t.etf.Delta()
	futDelta := t.future.Delta()
	if etfDelta == 0 || futDelta == 0 {
		return half
	}

	ratio := float64(etfDelta) / float64(futDelta)
	if ratio <= 0 {
		// Books moving apart: hedging into divergence adds risk.
		return 0
	}

	lots := quant.Lots(math.Floor(ratio * float64(volume)))
	if lots > half {
		return half
	}
	return lots
}

// hedgeExposure is the confirmed hedge position plus all in-flight
// hedge lots, signed. The limit bound has to hold even if every
// outstanding hedge fills.
func (t *Trader) hedgeExposure() quant.Lots {
	exp := int64(t.ledger.Hedge())
	for _, o := range t.hedges {
		exp = safe.Add(exp, int64(o.Lot*o.Side.Sign()))
	}
	return quant.Lots(exp)
}

// capToHedgeHeadroom bounds a hedge lot so the post-trade hedge
// position cannot exceed the limit. Returns the (possibly reduced)
// lot, 0 when there is no headroom at all.
func (t *Trader) capToHedgeHeadroom(side domain.Side, lot quant.Lots) quant.Lots {
	exp := t.hedgeExposure()
	limit := t.params.PositionLimit

	var headroom quant.Lots
	if side == domain.SideBuy {
		headroom = limit - exp
	} else {
		headroom = limit + exp
	}
	if headroom <= 0 {
		return 0
	}
	if lot > headroom {
		return headroom
	}
	return lot
}

// sendHedge submits a marketable hedge order and records it in the
// hedge order set.
func (t *Trader) sendHedge(side domain.Side, lot quant.Lots, emergency bool) uint64 {
	price := quant.MinBidNearestTick
	if side == domain.SideBuy {
		price = quant.MaxAskNearestTick
	}

	id := t.nextOrderID()
	t.hedges[id] = &domain.Order{ID: id, Price: price, Lot: lot, Side: side}
	if err := t.exec.SendHedgeOrder(id, side, price, lot); err != nil {
		slog.Warn("hedge command failed", slog.Uint64("id", id), slog.Any("error", err))
	}
	monitoring.HedgeOrders.Inc()

	slog.Info("hedge order sent",
		slog.Uint64("id", id),
		slog.String("side", side.String()),
		slog.Int64("lot", int64(lot)),
		slog.Bool("emergency", emergency))
	return id
}

// enterEmergencyHedge suspends quoting and forces net exposure back
// toward zero: cancel everything, submit exactly one sized hedge, and
// hold in StateHedging until its fill confirms. This is the circuit
// breaker against inventory accumulating faster than requoting can
// correct.
func (t *Trader) enterEmergencyHedge(net quant.Lots) {
	slog.Warn("EMERGENCY_HEDGE_TRIGGERED",
		slog.Int64("net_exposure", int64(net)),
		slog.Int64("primary", int64(t.ledger.Primary())),
		slog.Int64("hedge", int64(t.ledger.Hedge())))

	t.cancelSide(t.bids)
	t.cancelSide(t.asks)

	side := domain.SideSell
	if net < 0 {
		side = domain.SideBuy
	}
	lot := t.capToHedgeHeadroom(side, quant.Lots(safe.Abs(int64(net))))
	if lot <= 0 {
		// No hedge headroom left; stay Normal so the next tick retries.
		slog.Warn("emergency hedge suppressed: no headroom")
		return
	}

	t.emergencyID = t.sendHedge(side, lot, true)
	t.state = StateHedging
	monitoring.EmergencyTriggers.Inc()
}

// OnHedgeFilled applies a confirmed hedge fill and drives the
// Hedging -> Normal transition when the emergency order completes.
func (t *Trader) OnHedgeFilled(id uint64, price quant.Price, volume quant.Lots) {
	o := t.hedges[id]
	if o == nil {
		panic(fmt.Sprintf("UNKNOWN_HEDGE_FILL: id=%d price=%d volume=%d", id, price, volume))
	}

	t.ledger.ApplyHedgeFill(volume * o.Side.Sign())
	monitoring.HedgePosition.Set(float64(t.ledger.Hedge()))
	monitoring.FillVolume.WithLabelValues(domain.InstrumentFuture.String()).Add(float64(volume))
	t.pnl.RecordFill(o.Side, price, volume)

	o.Lot -= volume
	if o.Lot <= 0 {
		delete(t.hedges, id)
	}

	slog.Info("hedge filled",
		slog.Uint64("id", id),
		slog.String("price", price.String()),
		slog.Int64("volume", int64(volume)),
		slog.Int64("hedge_position", int64(t.ledger.Hedge())))

	if t.state == StateHedging && id == t.emergencyID && t.hedges[id] == nil {
		t.completeEmergency()
	}
}

// completeEmergency returns to Normal. If the emergency fill overshot
// zero (or left residual exposure beyond the buffer), a corrective
// counter-hedge goes out immediately; quoting resumes on the next
// hedge-instrument tick either way.
func (t *Trader) completeEmergency() {
	t.state = StateNormal
	t.emergencyID = 0
	t.unhedgedSince = time.Time{}

	net := t.ledger.Net()
	if safe.Abs(int64(net)) > int64(t.params.EmergencyBuffer) {
		side := domain.SideSell
		if net < 0 {
			side = domain.SideBuy
		}
		if lot := t.capToHedgeHeadroom(side, quant.Lots(safe.Abs(int64(net)))); lot > 0 {
			t.sendHedge(side, lot, true)
		}
	}

	slog.Info("emergency hedge complete", slog.Int64("net_exposure", int64(net)))
}
