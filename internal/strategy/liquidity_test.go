package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

func TestLiquidityZeroMid(t *testing.T) {
	var prices [domain.Depth]quant.Price
	var volumes [domain.Depth]quant.Lots
	prices[0] = 9900
	volumes[0] = 50

	require.Zero(t, Liquidity(0, prices, volumes))
	require.Zero(t, Liquidity(-1, prices, volumes))
}

func TestLiquiditySkipsEmptyLevels(t *testing.T) {
	var full, sparse [domain.Depth]quant.Price
	var fullVol, sparseVol [domain.Depth]quant.Lots

	full[0], fullVol[0] = 9900, 50
	sparse[0], sparseVol[0] = 9900, 50
	// Absent levels report price 0; any volume there must not count.
	sparseVol[1] = 1000

	require.Equal(t, Liquidity(10000, full, fullVol), Liquidity(10000, sparse, sparseVol))
}

func TestLiquidityAtMidContributesZero(t *testing.T) {
	var prices [domain.Depth]quant.Price
	var volumes [domain.Depth]quant.Lots
	prices[0], volumes[0] = 10000, 500
	prices[1], volumes[1] = 9900, 50

	got := Liquidity(10000, prices, volumes)
	want := 50 / math.Abs(math.Log(9900)-math.Log(10000))

	require.False(t, math.IsInf(got, 0))
	require.InDelta(t, want, got, 1e-9)
}

func TestLiquidityMonotonicInVolume(t *testing.T) {
	var prices [domain.Depth]quant.Price
	prices[0], prices[1] = 9900, 9800

	var lo, hi [domain.Depth]quant.Lots
	lo[0], lo[1] = 50, 40
	hi[0], hi[1] = 80, 40

	require.Greater(t, Liquidity(10000, prices, hi), Liquidity(10000, prices, lo))
}

func TestLiquidityWeighsNearMidHigher(t *testing.T) {
	var near, far [domain.Depth]quant.Price
	var vol [domain.Depth]quant.Lots
	near[0], far[0], vol[0] = 9900, 9500, 50

	require.Greater(t, Liquidity(10000, near, vol), Liquidity(10000, far, vol))
}

func TestLiquidityAsymmetricBook(t *testing.T) {
	// Deep laddered bid side versus a single thin ask level: the bid
	// side must score higher.
	var bidPrices, askPrices [domain.Depth]quant.Price
	var bidVolumes, askVolumes [domain.Depth]quant.Lots
	for i := 0; i < domain.Depth; i++ {
		bidPrices[i] = 9900 - quant.Ticks(int64(i))
		bidVolumes[i] = quant.Lots(50 - 10*i)
	}
	askPrices[0], askVolumes[0] = 10100, 60

	mid := quant.Price(10000)
	require.Greater(t, Liquidity(mid, bidPrices, bidVolumes), Liquidity(mid, askPrices, askVolumes))
}
