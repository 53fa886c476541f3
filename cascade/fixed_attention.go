package cascade

import "github.com/rushteam/revrank/core"

// fixedAttention 是固定注意力问题的 DP 表。
//
//	H[j,k]      = 只使用排序位置 >= j 的商品、注意力预算为 k 时的最大收益
//	Assort[j,k] = 达到 H[j,k] 的组合（arena 节点）
//
// H[n,k] = 0（没有商品），H[j,0] = 0（没有注意力）。表按 (n+1)×(maxK+1) 平铺存放。
type fixedAttention struct {
	n      int
	maxK   int
	h      []float64
	assort []int32
	arena  *assortArena
}

func (s *fixedAttention) idx(j, k int) int {
	return j*(s.maxK+1) + k
}

// solveFixedAttention 在已按 compareLemma1 排好序的商品上求解 k = 1..min(n, capacity)。
//
// 递推：
//
//	default     = H[j+1, k]
//	alternative = H[j+1, k-1] + p_j·(r_j - H[j+1, k-1])
//	H[j,k]      = alternative >= default ? alternative : default
//
// 相等时选择包含商品 j。这不影响收益值，但决定了多个最优组合中返回哪一个。
func solveFixedAttention(sorted []core.RankedProduct, capacity int) *fixedAttention {
	n := len(sorted)
	maxK := min(n, capacity)
	if maxK < 0 {
		maxK = 0
	}
	s := &fixedAttention{
		n:      n,
		maxK:   maxK,
		h:      make([]float64, (n+1)*(maxK+1)),
		assort: make([]int32, (n+1)*(maxK+1)),
		arena:  newAssortArena(n),
	}
	for i := range s.assort {
		s.assort[i] = emptyAssort
	}

	for j := n - 1; j >= 0; j-- {
		p := sorted[j].Product.Probability
		r := sorted[j].Product.Revenue
		for k := 1; k <= maxK; k++ {
			dflt := s.h[s.idx(j+1, k)]
			prev := s.h[s.idx(j+1, k-1)]
			// 显式转换阻止 FMA 融合，保证各平台舍入一致
			alternative := prev + float64(p*(r-prev))
			if alternative >= dflt {
				s.h[s.idx(j, k)] = alternative
				s.assort[s.idx(j, k)] = s.arena.push(j, s.assort[s.idx(j+1, k-1)])
			} else {
				s.h[s.idx(j, k)] = dflt
				s.assort[s.idx(j, k)] = s.assort[s.idx(j+1, k)]
			}
		}
	}
	return s
}

// revenue 返回 H[0,k]。
func (s *fixedAttention) revenue(k int) float64 {
	return s.h[s.idx(0, k)]
}

// positions 返回 Assort[0,k] 中商品的排序位置（升序）。
func (s *fixedAttention) positions(k int) []int {
	return s.arena.positions(s.assort[s.idx(0, k)])
}

func rankingAt(sorted []core.RankedProduct, positions []int) core.Ranking {
	out := make(core.Ranking, len(positions))
	for i, pos := range positions {
		out[i] = sorted[pos]
	}
	return out
}

// OptimalRankings 求解固定注意力问题：对每个 k = 1..min(len(catalog), capacity)，
// 返回恰好展示 k 个商品时的最优排序及其收益。
//
// rankings[k] 按 (revenue, probability) 降序排列；revenues[k] 不随 k 减小。
// capacity 为 0 或目录为空时返回两个空 map。
func OptimalRankings(catalog core.Catalog, capacity int) (map[int]core.Ranking, map[int]float64, error) {
	if err := validateCapacity(capacity); err != nil {
		return nil, nil, err
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, nil, err
	}

	sorted := sortCatalog(catalog)
	s := solveFixedAttention(sorted, capacity)

	rankings := make(map[int]core.Ranking, s.maxK)
	revenues := make(map[int]float64, s.maxK)
	for k := 1; k <= s.maxK; k++ {
		rankings[k] = rankingAt(sorted, s.positions(k))
		revenues[k] = s.revenue(k)
	}
	return rankings, revenues, nil
}
