package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

func TestLotSizeBounds(t *testing.T) {
	q := NewQuoter(DefaultParams())
	k := quant.Lots(DefaultParams().LotFactor)

	for pos := quant.Lots(-100); pos <= 100; pos += 5 {
		for _, liq := range []float64{0, 1e6, 1e7, 2e7, 1e12} {
			for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
				lot := q.LotSize(liq, pos, side)
				require.GreaterOrEqual(t, lot, quant.Lots(0), "pos=%d liq=%g side=%s", pos, liq, side)
				require.LessOrEqual(t, lot, k, "pos=%d liq=%g side=%s", pos, liq, side)
			}
		}
	}
}

func TestLotSizeZeroAtLimit(t *testing.T) {
	q := NewQuoter(DefaultParams())

	require.Zero(t, q.LotSize(2e7, 100, domain.SideBuy))
	require.Zero(t, q.LotSize(2e7, -100, domain.SideSell))

	// Beyond the limit the factor argument goes negative; size must
	// clamp to zero, not error out.
	require.Zero(t, q.LotSize(2e7, 110, domain.SideBuy))
	require.Zero(t, q.LotSize(2e7, -110, domain.SideSell))

	// The opposite side quotes full size at the limit.
	require.Equal(t, quant.Lots(30), q.LotSize(2e7, 100, domain.SideSell))
	require.Equal(t, quant.Lots(30), q.LotSize(2e7, -100, domain.SideBuy))
}

func TestLotSizeLiquidityScaling(t *testing.T) {
	q := NewQuoter(DefaultParams())

	require.Zero(t, q.LotSize(0, 0, domain.SideBuy))
	// liq = Lmax/4 halves the liquidity factor: floor(30*sqrt(0.5)*0.5).
	require.Equal(t, quant.Lots(10), q.LotSize(5e6, 0, domain.SideBuy))
	// Scores beyond Lmax are capped, not extrapolated.
	require.Equal(t, q.LotSize(2e7, 0, domain.SideBuy), q.LotSize(1e12, 0, domain.SideBuy))
}

func TestSpreadIndexes(t *testing.T) {
	q := NewQuoter(DefaultParams())

	// Flat inventory, both sides below every liquidity threshold.
	bid, ask := q.SpreadIndexes(0, 0, 0)
	require.Equal(t, 3, bid)
	require.Equal(t, 3, ask)

	// Deep bid-side liquidity tightens the bid only.
	bid, ask = q.SpreadIndexes(3e7, 5e6, 0)
	require.Equal(t, 0, bid)
	require.Equal(t, 2, ask)

	// Long inventory widens the bid and tightens the ask.
	bid, ask = q.SpreadIndexes(0, 0, 30)
	require.Equal(t, 4, bid)
	require.Equal(t, 2, ask)

	// Index clamps to the book depth in both directions.
	bid, ask = q.SpreadIndexes(3e7, 3e7, 100)
	require.Equal(t, 2, bid)
	require.Equal(t, 0, ask)
	bid, _ = q.SpreadIndexes(0, 0, 100)
	require.Equal(t, 4, bid)
}

func TestQuoteDeterministic(t *testing.T) {
	q := NewQuoter(DefaultParams())
	snap := futSnap(7, 9900, 10100)

	a := q.Quote(snap, 1.5e6, 4e6, 25)
	b := q.Quote(snap, 1.5e6, 4e6, 25)
	require.Equal(t, a, b)
}

func TestQuoteEmergencyOffset(t *testing.T) {
	q := NewQuoter(DefaultParams())
	snap := futSnap(1, 9900, 10100)

	// Inventory pinned long: the ask adjustment saturates, so the ask
	// crosses two extra ticks past its selected level.
	got := q.Quote(snap, 0, 0, 100)
	require.Equal(t, quant.Price(10000), got.AskPrice) // level 1 at 10200, minus 2 ticks
	require.Zero(t, got.BidLot)

	// Pinned short mirrors on the bid.
	got = q.Quote(snap, 0, 0, -100)
	require.Equal(t, quant.Price(10000), got.BidPrice) // level 1 at 9800, plus 2 ticks
	require.Zero(t, got.AskLot)
}

func TestQuoteEmptyLevelSuppressesSide(t *testing.T) {
	q := NewQuoter(DefaultParams())

	// Only the best level exists; with zero liquidity the selected
	// level is 3, which is absent, so neither side prices.
	var snap domain.Snapshot
	snap.SeqNum = 1
	snap.BidPrices[0], snap.BidVolumes[0] = 9900, 50
	snap.AskPrices[0], snap.AskVolumes[0] = 10100, 50

	got := q.Quote(snap, 0, 0, 0)
	require.Zero(t, got.BidPrice)
	require.Zero(t, got.AskPrice)
}

func TestPriceClampedToTickBounds(t *testing.T) {
	q := NewQuoter(DefaultParams())

	var levels [domain.Depth]quant.Price
	levels[0] = 150

	// Saturated ask two ticks below 150 would go negative.
	require.Equal(t, quant.MinBidNearestTick, q.price(levels, 0, domain.SideSell, true))
	require.Zero(t, q.price(levels, 1, domain.SideSell, false))
}
