package strategy

import (
	"math"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// Liquidity scores one side of an order book: the volume at each level
// weighted by the inverse log-distance of its price from the mid. A
// larger score means deeper liquidity concentrated near the mid.
//
// Levels with price 0 are absent and contribute nothing. A level priced
// exactly at the mid has an undefined distance and is defined to
// contribute zero rather than blowing up the sum. Pure function.
func Liquidity(mid quant.Price, prices [domain.Depth]quant.Price, volumes [domain.Depth]quant.Lots) float64 {
	if mid <= 0 {
		return 0
	}
	logMid := math.Log(float64(mid))

	var score float64
	for i := 0; i < domain.Depth; i++ {
		p := prices[i]
		if p <= 0 {
			continue
		}
		dist := math.Abs(math.Log(float64(p)) - logMid)
		if dist == 0 {
			continue
		}
		score += float64(volumes[i]) / dist
	}
	return score
}
