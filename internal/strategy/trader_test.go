package strategy

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"maker_go/internal/domain"
	"maker_go/internal/execution"
	"maker_go/internal/monitoring"
	"maker_go/pkg/quant"
)

// etfSnap builds a deep primary-book ladder whose liquidity score is
// far beyond every threshold.
func etfSnap(seq uint64, bid, ask quant.Price) domain.Snapshot {
	var s domain.Snapshot
	s.SeqNum = seq
	for i := 0; i < domain.Depth; i++ {
		s.BidPrices[i] = bid - quant.Ticks(int64(i))
		s.BidVolumes[i] = 1_000_000
		s.AskPrices[i] = ask + quant.Ticks(int64(i))
		s.AskVolumes[i] = 1_000_000
	}
	return s
}

// futSnap builds a hedge-book ladder. A zero best price leaves that
// side empty.
func futSnap(seq uint64, bid, ask quant.Price) domain.Snapshot {
	var s domain.Snapshot
	s.SeqNum = seq
	for i := 0; i < domain.Depth; i++ {
		if bid != 0 {
			s.BidPrices[i] = bid - quant.Ticks(int64(i))
			s.BidVolumes[i] = 50
		}
		if ask != 0 {
			s.AskPrices[i] = ask + quant.Ticks(int64(i))
			s.AskVolumes[i] = 50
		}
	}
	return s
}

type fixture struct {
	tr    *Trader
	mock  *execution.MockExecution
	clock time.Time
}

func newFixture() *fixture {
	f := &fixture{
		mock:  execution.NewMockExecution(),
		clock: time.Unix(1_700_000_000, 0),
	}
	f.tr = NewTrader(DefaultParams(), f.mock, nil)
	f.tr.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) primeETF(seq uint64) {
	f.tr.OnBookUpdate(domain.InstrumentETF, etfSnap(seq, 9900, 10100))
}

func (f *fixture) tick(seq uint64) {
	f.tr.OnBookUpdate(domain.InstrumentFuture, futSnap(seq, 9900, 10100))
}

func lastInsert(m *execution.MockExecution, side domain.Side) execution.Command {
	var out execution.Command
	for _, c := range m.Inserts() {
		if c.Side == side {
			out = c
		}
	}
	return out
}

func TestRequoteInsertsBothSides(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)

	inserts := f.mock.Inserts()
	require.Len(t, inserts, 2)

	bid := lastInsert(f.mock, domain.SideBuy)
	ask := lastInsert(f.mock, domain.SideSell)

	// Deep liquidity tightens both sides to the best level; flat
	// inventory sizes both at floor(30*sqrt(0.5)).
	require.Equal(t, quant.Price(9900), bid.Price)
	require.Equal(t, quant.Price(10100), ask.Price)
	require.Equal(t, quant.Lots(21), bid.Lot)
	require.Equal(t, quant.Lots(21), ask.Lot)

	bids, asks, hedges := f.tr.RestingCounts()
	require.Equal(t, 1, bids)
	require.Equal(t, 1, asks)
	require.Zero(t, hedges)
}

func TestRequoteCancelsBeforeReinsert(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	first := lastInsert(f.mock, domain.SideBuy)
	f.mock.Reset()

	f.tick(2)
	cancels := f.mock.Cancels()
	require.Len(t, cancels, 2)
	require.Len(t, f.mock.Inserts(), 2)

	// Cancels are advisory: the old order stays tracked and fillable
	// until its status reports zero remaining.
	require.True(t, f.tr.HasOrder(first.OrderID))
	f.tr.OnOrderStatus(first.OrderID, 0, 0, 0)
	require.False(t, f.tr.HasOrder(first.OrderID))
}

func TestNoQuotesWithoutPrimaryBook(t *testing.T) {
	f := newFixture()
	f.tick(1)
	require.Empty(t, f.mock.Inserts())
}

func TestDegradedHedgeBookDequotes(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	require.Len(t, f.mock.Inserts(), 2)
	f.mock.Reset()

	// Ask side vanishes: cancel everything and stay out.
	f.tr.OnBookUpdate(domain.InstrumentFuture, futSnap(2, 9900, 0))
	require.Len(t, f.mock.Cancels(), 2)
	require.Empty(t, f.mock.Inserts())
}

func TestStaleSnapshotIgnored(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(5)
	f.mock.Reset()

	f.tick(5)
	f.tick(3)
	require.Empty(t, f.mock.Commands)
}

func TestFillHedgesHalfWhenBooksNotReady(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)
	f.mock.Reset()

	f.tr.OnOrderFilled(bid.OrderID, 9900, 20)

	require.Equal(t, quant.Lots(20), f.tr.Position())
	require.True(t, f.tr.HasOrder(bid.OrderID)) // partial fill, still resting

	hedges := f.mock.Hedges()
	require.Len(t, hedges, 1)
	require.Equal(t, domain.SideSell, hedges[0].Side)
	require.Equal(t, quant.Lots(10), hedges[0].Lot)
	require.Equal(t, quant.MinBidNearestTick, hedges[0].Price)
}

func TestFillHedgesByDeltaRatio(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tr.OnBookUpdate(domain.InstrumentETF, etfSnap(2, 10000, 10200)) // mid +100
	f.tick(1)
	f.tr.OnBookUpdate(domain.InstrumentFuture, futSnap(2, 10300, 10500)) // mid +400
	bid := lastInsert(f.mock, domain.SideBuy)
	f.mock.Reset()

	// Both books ready, ratio 100/400: floor(0.25 * 20) = 5.
	f.tr.OnOrderFilled(bid.OrderID, 10300, 20)
	hedges := f.mock.Hedges()
	require.Len(t, hedges, 1)
	require.Equal(t, quant.Lots(5), hedges[0].Lot)

	// Diverging books: hedging adds risk, skip entirely.
	f.tr.OnBookUpdate(domain.InstrumentFuture, futSnap(3, 9900, 10100)) // mid -400
	bid = lastInsert(f.mock, domain.SideBuy)
	f.mock.Reset()
	f.tr.OnOrderFilled(bid.OrderID, 9900, 10)
	require.Empty(t, f.mock.Hedges())
}

func TestHedgeCappedToHeadroom(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)

	// In-flight short hedge exposure of 95 leaves sell headroom 5.
	f.tr.hedges[999] = &domain.Order{ID: 999, Side: domain.SideSell, Lot: 95}
	f.mock.Reset()
	f.tr.OnOrderFilled(bid.OrderID, 9900, 20)
	hedges := f.mock.Hedges()
	require.Len(t, hedges, 1)
	require.Equal(t, quant.Lots(5), hedges[0].Lot)

	// No headroom at all suppresses the hedge.
	f.tr.hedges[999].Lot = 100
	f.mock.Reset()
	f.tr.OnOrderFilled(bid.OrderID, 9900, 1)
	require.Empty(t, f.mock.Hedges())
}

func TestQuoteSuppressedNearLimit(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)
	f.tr.OnOrderFilled(bid.OrderID, 9900, 97)
	f.mock.Reset()

	f.tick(2)

	// Bid size 3 would take the position to exactly the limit, so the
	// bid is withheld; the ask goes out extra aggressive because the
	// inventory adjustment saturated.
	inserts := f.mock.Inserts()
	require.Len(t, inserts, 1)
	require.Equal(t, domain.SideSell, inserts[0].Side)
	require.Equal(t, quant.Lots(29), inserts[0].Lot)
	require.Equal(t, quant.Price(9900), inserts[0].Price)
	require.Equal(t, quant.Lots(97), f.tr.Position())
}

func TestEmergencyHedgeLifecycle(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)

	f.tr.OnOrderFilled(bid.OrderID, 9900, 20)
	h1 := f.mock.Hedges()[0].OrderID

	// Net exposure 20 starts the unhedged timer on the next tick.
	f.tick(2)
	require.Equal(t, StateNormal, f.tr.State())

	f.advance(61 * time.Second)
	f.mock.Reset()
	f.tick(3)

	require.Equal(t, StateHedging, f.tr.State())
	require.Empty(t, f.mock.Inserts())
	require.Len(t, f.mock.Cancels(), 4)
	emergency := f.mock.Hedges()
	require.Len(t, emergency, 1)
	require.Equal(t, domain.SideSell, emergency[0].Side)
	require.Equal(t, quant.Lots(20), emergency[0].Lot)

	// Quoting stays suspended until the emergency fill confirms.
	f.mock.Reset()
	f.tick(4)
	require.Empty(t, f.mock.Commands)

	// The earlier routine hedge filling does not complete the emergency.
	f.tr.OnHedgeFilled(h1, quant.MinBidNearestTick, 10)
	require.Equal(t, StateHedging, f.tr.State())

	// Emergency fill overshoots zero by 10; a corrective buy goes out.
	f.tr.OnHedgeFilled(emergency[0].OrderID, quant.MinBidNearestTick, 20)
	require.Equal(t, StateNormal, f.tr.State())
	require.Equal(t, quant.Lots(-30), f.tr.HedgePosition())

	corrective := f.mock.Hedges()
	require.Len(t, corrective, 1)
	require.Equal(t, domain.SideBuy, corrective[0].Side)
	require.Equal(t, quant.Lots(10), corrective[0].Lot)
	require.Equal(t, quant.MaxAskNearestTick, corrective[0].Price)

	f.tr.OnHedgeFilled(corrective[0].OrderID, quant.MaxAskNearestTick, 10)
	require.Zero(t, f.tr.Position()+f.tr.HedgePosition())

	// Normal quoting resumes.
	f.mock.Reset()
	f.tick(5)
	require.Len(t, f.mock.Inserts(), 2)
}

func TestUnhedgedTimerClearsOnceHedged(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)

	f.tr.OnOrderFilled(bid.OrderID, 9900, 20)
	h1 := f.mock.Hedges()[0].OrderID
	f.tick(2)

	// Hedge confirms, bringing net exposure back to the threshold.
	f.tr.OnHedgeFilled(h1, quant.MinBidNearestTick, 10)

	f.advance(61 * time.Second)
	f.mock.Reset()
	f.tick(3)

	require.Equal(t, StateNormal, f.tr.State())
	require.Len(t, f.mock.Inserts(), 2)
}

func TestUnknownOrderEventsPanic(t *testing.T) {
	require.Panics(t, func() { newFixture().tr.OnOrderFilled(42, 9900, 1) })
	require.Panics(t, func() { newFixture().tr.OnOrderStatus(42, 0, 0, 0) })
	require.Panics(t, func() { newFixture().tr.OnHedgeFilled(42, 9900, 1) })
}

func TestOrderStatusBooksFeeDeltas(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)

	f.tr.OnOrderStatus(bid.OrderID, 5, 16, 300)
	require.True(t, f.tr.HasOrder(bid.OrderID))
	require.Equal(t, "3", f.tr.PnL().Fees().String())

	// Running total moves to 700: only the 400 delta is booked.
	f.tr.OnOrderStatus(bid.OrderID, 21, 0, 700)
	require.False(t, f.tr.HasOrder(bid.OrderID))
	require.Equal(t, "7", f.tr.PnL().Fees().String())
}

func TestVenueErrorRemovesOrder(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)

	f.tr.OnError(bid.OrderID, "order rejected")
	require.False(t, f.tr.HasOrder(bid.OrderID))

	// Errors without an order reference, or for ids already gone, are
	// log-only.
	f.tr.OnError(0, "rate limited")
	f.tr.OnError(4242, "unknown order")
}

func TestDumpReflectsState(t *testing.T) {
	f := newFixture()
	f.primeETF(1)
	f.tick(1)
	bid := lastInsert(f.mock, domain.SideBuy)
	f.tr.OnOrderFilled(bid.OrderID, 9900, 20)

	d := f.tr.Dump()
	require.Equal(t, quant.Lots(20), d.Primary)
	require.Equal(t, "NORMAL", d.State)
	require.Len(t, d.Bids, 1)
	require.Len(t, d.Asks, 1)
	require.Len(t, d.Hedges, 1)
}

func TestTradeTicksCounted(t *testing.T) {
	f := newFixture()
	etf := domain.InstrumentETF.String()

	before := testutil.ToFloat64(monitoring.TradeTicks.WithLabelValues(etf))
	f.tr.OnTradeTicks(domain.InstrumentETF, domain.Snapshot{SeqNum: 1})
	f.tr.OnTradeTicks(domain.InstrumentETF, domain.Snapshot{SeqNum: 2})
	after := testutil.ToFloat64(monitoring.TradeTicks.WithLabelValues(etf))

	require.Equal(t, before+2, after)

	// Trade prints never move positions or orders.
	require.Equal(t, quant.Lots(0), f.tr.Position())
	require.Empty(t, f.mock.Commands)
}
