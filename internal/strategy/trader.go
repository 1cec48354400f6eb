package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/execution"
	"maker_go/internal/monitoring"
	"maker_go/pkg/quant"
	"maker_go/pkg/safe"
)

// HedgeState is the emergency hedge state machine state.
type HedgeState uint8

const (
	// StateNormal: quoting runs on every hedge-instrument tick.
	StateNormal HedgeState = iota
	// StateHedging: an emergency hedge is in flight and quoting is
	// suspended until its fill confirms.
	StateHedging
)

func (s HedgeState) String() string {
	if s == StateHedging {
		return "HEDGING"
	}
	return "NORMAL"
}

// Trader owns all mutable trading state: the two books, the position
// ledger, the resting-order sets and the emergency hedge state
// machine. Every handler runs to completion on the sequencer goroutine
// before the next event is processed, so no locking is needed.
type Trader struct {
	params Params
	quoter *Quoter
	exec   execution.Execution

	etf    *domain.Book
	future *domain.Book
	ledger *domain.Ledger
	pnl    *domain.PnL

	// Order-id spaces: quote orders (bids/asks) and hedge orders are
	// disjoint sets keyed by id; ids are process-unique and monotonic.
	nextID uint64
	bids   map[uint64]*domain.Order
	asks   map[uint64]*domain.Order
	hedges map[uint64]*domain.Order

	state         HedgeState
	emergencyID   uint64
	unhedgedSince time.Time

	// now is a monotonic clock read, replaceable in tests.
	now func() time.Time

	// onQuote receives every computed quote target. Boundary hook for
	// the diagnostic quote log; may be nil.
	onQuote func(QuoteTarget)
}

// NewTrader creates a trader session. exec may be nil at construction
// if BindExecution is called before any event is processed; onQuote
// may be nil.
func NewTrader(params Params, exec execution.Execution, onQuote func(QuoteTarget)) *Trader {
	return &Trader{
		params:  params,
		quoter:  NewQuoter(params),
		exec:    exec,
		etf:     domain.NewBook(domain.InstrumentETF),
		future:  domain.NewBook(domain.InstrumentFuture),
		ledger:  domain.NewLedger(params.PositionLimit),
		pnl:     domain.NewPnL(),
		bids:    make(map[uint64]*domain.Order),
		asks:    make(map[uint64]*domain.Order),
		hedges:  make(map[uint64]*domain.Order),
		now:     time.Now,
		onQuote: onQuote,
	}
}

func (t *Trader) nextOrderID() uint64 {
	t.nextID++
	return t.nextID
}

// BindExecution attaches the execution backend. The backend publishes
// into the sequencer inbox, so it can only be built after the
// sequencer exists; bind before the sequencer starts running.
func (t *Trader) BindExecution(exec execution.Execution) {
	t.exec = exec
}

// OnBookUpdate ingests a snapshot. A primary-instrument update only
// refreshes the liquidity inputs; a hedge-instrument update drives the
// full recompute pipeline (or the emergency state machine).
func (t *Trader) OnBookUpdate(inst domain.Instrument, snap domain.Snapshot) {
	switch inst {
	case domain.InstrumentETF:
		t.etf.Update(snap)
	case domain.InstrumentFuture:
		if !t.future.Update(snap) {
			return
		}
		t.onHedgeBookTick()
	}
}

// onHedgeBookTick re-evaluates the unhedged timer and then either
// short-circuits into the emergency hedge or requotes both sides.
func (t *Trader) onHedgeBookTick() {
	now := t.now()
	net := t.ledger.Net()

	if safe.Abs(int64(net)) <= int64(t.params.UnhedgedThreshold) {
		t.unhedgedSince = time.Time{}
	} else if t.unhedgedSince.IsZero() {
		t.unhedgedSince = now
	}

	if t.state == StateHedging {
		// Quoting suspended until the emergency fill confirms.
		return
	}

	if !t.unhedgedSince.IsZero() && now.Sub(t.unhedgedSince) > t.params.UnhedgedLimit {
		t.enterEmergencyHedge(net)
		return
	}

	t.requote()
}

// requote runs the full-requote policy: cancel every resting quote on
// both sides, then insert at most one fresh order per side. Simple,
// and guarantees no stale or duplicate quote survives a recompute.
func (t *Trader) requote() {
	futSnap, ok := t.future.Current()
	if !ok {
		return
	}

	monitoring.QuoteTicks.Inc()

	t.cancelSide(t.bids)
	t.cancelSide(t.asks)

	// A one-sided hedge book has no usable mid: stay out of the market
	// until depth returns.
	if futSnap.Mid() == 0 {
		return
	}

	// Size off the primary instrument's liquidity; without a usable
	// primary book there is nothing safe to quote.
	var bidLiq, askLiq float64
	if etfSnap, ok := t.etf.Current(); ok && etfSnap.Mid() != 0 {
		mid := etfSnap.Mid()
		bidLiq = Liquidity(mid, etfSnap.BidPrices, etfSnap.BidVolumes)
		askLiq = Liquidity(mid, etfSnap.AskPrices, etfSnap.AskVolumes)
	}

	pos := t.ledger.Primary()
	target := t.quoter.Quote(futSnap, bidLiq, askLiq, pos)
	target.Ts = quant.TimeStamp(t.now().UnixMicro())

	if target.BidLot > 0 && target.BidPrice > 0 && t.insertAllowed(pos, target.BidLot) {
		t.insertQuote(domain.SideBuy, target.BidPrice, target.BidLot)
	}
	if target.AskLot > 0 && target.AskPrice > 0 && t.insertAllowed(pos, -target.AskLot) {
		t.insertQuote(domain.SideSell, target.AskPrice, target.AskLot)
	}

	if t.onQuote != nil {
		t.onQuote(target)
	}
}

// insertAllowed checks the no-breach invariant: the position plus the
// full signed lot must stay strictly under the limit.
func (t *Trader) insertAllowed(pos, signedLot quant.Lots) bool {
	post := safe.Add(int64(pos), int64(signedLot))
	return safe.Abs(post) < int64(t.params.PositionLimit)
}

func (t *Trader) insertQuote(side domain.Side, price quant.Price, lot quant.Lots) {
	id := t.nextOrderID()
	o := &domain.Order{ID: id, Price: price, Lot: lot, Side: side}
	if side == domain.SideBuy {
		t.bids[id] = o
	} else {
		t.asks[id] = o
	}
	if err := t.exec.InsertOrder(id, side, price, lot, domain.GoodForDay); err != nil {
		slog.Warn("insert command failed", slog.Uint64("id", id), slog.Any("error", err))
	}
	monitoring.OrdersInserted.WithLabelValues(side.String()).Inc()
}

// cancelSide issues cancels for every resting order in the set. The
// orders stay in the set: cancels are advisory and each order remains
// fillable until its status reports zero remaining volume.
func (t *Trader) cancelSide(side map[uint64]*domain.Order) {
	for id := range side {
		if err := t.exec.CancelOrder(id); err != nil {
			slog.Warn("cancel command failed", slog.Uint64("id", id), slog.Any("error", err))
		}
		monitoring.OrdersCancelled.Inc()
	}
}

// OnOrderFilled applies a confirmed partial or full fill of a resting
// quote order: ledger first, then the hedge response. A fill for an id
// in neither set means the order-id mapping is corrupted; trading on
// must not continue.
func (t *Trader) OnOrderFilled(id uint64, price quant.Price, volume quant.Lots) {
	switch {
	case t.bids[id] != nil:
		t.applyQuoteFill(t.bids[id], domain.SideBuy, price, volume)
	case t.asks[id] != nil:
		t.applyQuoteFill(t.asks[id], domain.SideSell, price, volume)
	default:
		panic(fmt.Sprintf("UNKNOWN_ORDER_FILL: id=%d price=%d volume=%d", id, price, volume))
	}
}

func (t *Trader) applyQuoteFill(o *domain.Order, side domain.Side, price quant.Price, volume quant.Lots) {
	t.ledger.ApplyPrimaryFill(volume * side.Sign())
	monitoring.PrimaryPosition.Set(float64(t.ledger.Primary()))
	monitoring.FillVolume.WithLabelValues(domain.InstrumentETF.String()).Add(float64(volume))

	o.Lot -= volume
	if o.Lot < 0 {
		o.Lot = 0
	}
	t.pnl.RecordFill(side, price, volume)

	slog.Info("order filled",
		slog.Uint64("id", o.ID),
		slog.String("side", side.String()),
		slog.String("price", price.String()),
		slog.Int64("volume", int64(volume)),
		slog.Int64("position", int64(t.ledger.Primary())))

	t.hedgeAfterFill(side, volume)
}

// OnOrderStatus is the authoritative order-state update. Zero
// remaining volume removes the order from whichever set holds it; an
// unrecognized id is a fatal consistency violation.
func (t *Trader) OnOrderStatus(id uint64, fillVolume, remainingVolume quant.Lots, feesCents int64) {
	o := t.lookupOrder(id)
	if o == nil {
		panic(fmt.Sprintf("UNKNOWN_ORDER_STATUS: id=%d remaining=%d", id, remainingVolume))
	}

	// Fees arrive as a running total per order; book only the delta.
	if feesCents != o.FeesCents {
		t.pnl.RecordFees(feesCents - o.FeesCents)
		o.FeesCents = feesCents
	}

	if remainingVolume == 0 {
		t.removeOrder(id)
		return
	}
	o.Lot = remainingVolume
}

// OnError handles a venue rejection. A non-zero id referring to a live
// order is treated as an implicit zero-remaining status update.
func (t *Trader) OnError(id uint64, message string) {
	slog.Warn("venue error", slog.Uint64("id", id), slog.String("message", message))
	if id == 0 {
		return
	}
	if t.lookupOrder(id) != nil {
		t.removeOrder(id)
	}
}

// OnTradeTicks receives market trade prints. Metrics only, no trading
// decision keys off them.
func (t *Trader) OnTradeTicks(inst domain.Instrument, snap domain.Snapshot) {
	monitoring.TradeTicks.WithLabelValues(inst.String()).Inc()
	slog.Debug("trade ticks", slog.String("instrument", inst.String()), slog.Uint64("seq", snap.SeqNum))
}

func (t *Trader) lookupOrder(id uint64) *domain.Order {
	if o := t.bids[id]; o != nil {
		return o
	}
	if o := t.asks[id]; o != nil {
		return o
	}
	return t.hedges[id]
}

func (t *Trader) removeOrder(id uint64) {
	delete(t.bids, id)
	delete(t.asks, id)
	delete(t.hedges, id)
}

// Accessors used by the sequencer, diagnostics and tests.

// Position returns the net primary position.
func (t *Trader) Position() quant.Lots { return t.ledger.Primary() }

// HedgePosition returns the net hedge position.
func (t *Trader) HedgePosition() quant.Lots { return t.ledger.Hedge() }

// State returns the current emergency state.
func (t *Trader) State() HedgeState { return t.state }

// PnL returns the realized PnL accumulator.
func (t *Trader) PnL() *domain.PnL { return t.pnl }

// RestingCounts returns the sizes of the bid, ask and hedge order sets.
func (t *Trader) RestingCounts() (bids, asks, hedges int) {
	return len(t.bids), len(t.asks), len(t.hedges)
}

// HasOrder reports whether any order set still holds the id.
func (t *Trader) HasOrder(id uint64) bool { return t.lookupOrder(id) != nil }

// StateDump is a JSON-marshalable snapshot of the trader's mutable
// state, written out on fatal panics for post-mortem.
type StateDump struct {
	Primary       quant.Lots     `json:"primary_position"`
	Hedge         quant.Lots     `json:"hedge_position"`
	State         string         `json:"state"`
	NextID        uint64         `json:"next_id"`
	Bids          []domain.Order `json:"bids"`
	Asks          []domain.Order `json:"asks"`
	Hedges        []domain.Order `json:"hedges"`
	UnhedgedSince string         `json:"unhedged_since,omitempty"`
}

// Dump captures the current state for post-mortem diagnostics.
func (t *Trader) Dump() StateDump {
	d := StateDump{
		Primary: t.ledger.Primary(),
		Hedge:   t.ledger.Hedge(),
		State:   t.state.String(),
		NextID:  t.nextID,
	}
	for _, o := range t.bids {
		d.Bids = append(d.Bids, *o)
	}
	for _, o := range t.asks {
		d.Asks = append(d.Asks, *o)
	}
	for _, o := range t.hedges {
		d.Hedges = append(d.Hedges, *o)
	}
	if !t.unhedgedSince.IsZero() {
		d.UnhedgedSince = t.unhedgedSince.Format(time.RFC3339Nano)
	}
	return d
}
