package cascade

import "github.com/rushteam/revrank/core"

// BestXSegments 把 best-x 策略补满到展示位上限，并返回每一轮的选择。
//
// 最优的 x 可能远小于 capacity，因此：
//  1. 选出 best x 及其排序，作为前 x 个展示位；
//  2. offset 记为已放置的商品数，把这些商品从目录中移除；
//  3. 以 capacity - offset 和带 offset 的分布再次选择，直到放满或没有正的下界。
//
// 每一段都是针对当时剩余目录的固定注意力最优解，段之间没有重复商品。
func BestXSegments(catalog core.Catalog, g core.AttentionDistribution, capacity int) ([]Segment, error) {
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}
	if err := validateDistribution(g); err != nil {
		return nil, err
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}

	ws := newWorkset(sortCatalog(catalog))
	toRank := min(len(catalog), capacity)

	var segments []Segment
	offset := 0
	for offset < toRank {
		products, index := ws.remaining()
		x, lowerBound, positions := bestXSorted(products, g, toRank-offset, offset)
		if x == 0 {
			break
		}
		for _, pos := range positions {
			ws.remove(index[pos])
		}
		segments = append(segments, Segment{
			X:          x,
			Offset:     offset,
			LowerBound: lowerBound,
			Ranking:    rankingAt(products, positions),
		})
		offset += x
	}
	return segments, nil
}

// BestXFullCapacity 返回 best-x 策略补满后的完整排序，长度不超过 min(len(catalog), capacity)。
func BestXFullCapacity(catalog core.Catalog, g core.AttentionDistribution, capacity int) (core.Ranking, error) {
	segments, err := BestXSegments(catalog, g, capacity)
	if err != nil {
		return nil, err
	}
	return concatSegments(segments), nil
}

func concatSegments(segments []Segment) core.Ranking {
	var out core.Ranking
	for _, seg := range segments {
		out = append(out, seg.Ranking...)
	}
	return out
}

// Plan 是一次完整排序的结果。
type Plan struct {
	Segments        []Segment    `json:"segments"`
	Ranking         core.Ranking `json:"ranking"`
	ExpectedRevenue float64      `json:"expected_revenue"`
}

// Xs 返回每一轮选中的 x。
func (p *Plan) Xs() []int {
	xs := make([]int, len(p.Segments))
	for i, seg := range p.Segments {
		xs[i] = seg.X
	}
	return xs
}

// Build 运行 BestXSegments 并用同一分布评估最终排序的期望收益。
func Build(catalog core.Catalog, g core.AttentionDistribution, capacity int) (*Plan, error) {
	segments, err := BestXSegments(catalog, g, capacity)
	if err != nil {
		return nil, err
	}
	ranking := concatSegments(segments)
	return &Plan{
		Segments:        segments,
		Ranking:         ranking,
		ExpectedRevenue: expectedRevenue(ranking, g),
	}, nil
}
