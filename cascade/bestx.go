package cascade

import "github.com/rushteam/revrank/core"

// Segment 是一次 best-x 选择的结果。
type Segment struct {
	// X 是选中的固定注意力跨度，也是 Ranking 的长度
	X int `json:"x"`

	// Offset 是本段之前已经放置的商品数
	Offset int `json:"offset"`

	// LowerBound = revenues[X] · P(attention >= X + Offset)
	LowerBound float64 `json:"lower_bound"`

	Ranking core.Ranking `json:"ranking"`
}

// bestXSorted 在已排序的商品上选出下界最大的 x。
// 严格大于才更新最大值，所以并列时取最小的 x；没有正的下界时返回 x = 0。
func bestXSorted(sorted []core.RankedProduct, g core.AttentionDistribution, capacity, offset int) (int, float64, []int) {
	s := solveFixedAttention(sorted, capacity)

	bestX := 0
	maxLowerBound := 0.0
	for x := 1; x <= s.maxK; x++ {
		lowerBound := s.revenue(x) * core.AtLeast(g, x+offset)
		if lowerBound > maxLowerBound {
			bestX = x
			maxLowerBound = lowerBound
		}
	}
	if bestX == 0 {
		return 0, 0, nil
	}
	return bestX, maxLowerBound, s.positions(bestX)
}

// BestX 选出收益下界最大的注意力跨度 x 及其最优排序。
//
// 对每个 x = 1..min(len(catalog), capacity)，固定注意力为 x 的最优排序至少能从
// 注意力 >= x + offset 的那部分顾客身上拿到 revenues[x]，于是
//
//	L(x) = revenues[x] · (g.SF(x+offset) + g.PMF(x+offset))
//
// offset 表示前面已经占用的展示位（单独调用时为 0）。
// 若所有 L(x) 都不为正，返回 (0, nil, nil)：这是正常结果，表示不值得继续展示。
func BestX(catalog core.Catalog, g core.AttentionDistribution, capacity, offset int) (int, core.Ranking, error) {
	if err := validateCapacity(capacity); err != nil {
		return 0, nil, err
	}
	if err := validateOffset(offset); err != nil {
		return 0, nil, err
	}
	if err := validateDistribution(g); err != nil {
		return 0, nil, err
	}
	if err := ValidateCatalog(catalog); err != nil {
		return 0, nil, err
	}

	sorted := sortCatalog(catalog)
	x, _, positions := bestXSorted(sorted, g, capacity, offset)
	if x == 0 {
		return 0, nil, nil
	}
	return x, rankingAt(sorted, positions), nil
}
