package attention

import (
	"math"
	"slices"

	"github.com/rushteam/revrank/core"
)

// Empirical 是由直方图（注意力 -> 频次）归一化得到的经验分布，
// 常用于从曝光日志统计出的实际浏览深度。
type Empirical struct {
	pmf []float64 // 下标为注意力跨度
	sf  []float64 // sf[k] = sum(pmf[k+1:])
}

// NewEmpirical 根据频次构造经验分布。频次必须非负且总和为正，注意力不能为负。
func NewEmpirical(counts map[int]float64) (*Empirical, error) {
	if len(counts) == 0 {
		return nil, core.InvalidInput(core.ModuleAttention, "empirical: counts are required")
	}
	spans := make([]int, 0, len(counts))
	total := 0.0
	for span, c := range counts {
		if span < 0 {
			return nil, core.InvalidInput(core.ModuleAttention, "empirical: attention span must be non-negative, got %d", span)
		}
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			return nil, core.InvalidInput(core.ModuleAttention, "empirical: count for span %d must be finite and non-negative, got %v", span, c)
		}
		spans = append(spans, span)
	}
	// 固定求和顺序，结果与 map 迭代顺序无关
	slices.Sort(spans)
	for _, span := range spans {
		total += counts[span]
	}
	if total <= 0 {
		return nil, core.InvalidInput(core.ModuleAttention, "empirical: total count must be positive")
	}

	maxSpan := spans[len(spans)-1]
	pmf := make([]float64, maxSpan+1)
	for _, span := range spans {
		pmf[span] = counts[span] / total
	}
	sf := make([]float64, maxSpan+1)
	tail := 0.0
	for k := maxSpan; k >= 0; k-- {
		sf[k] = tail
		tail += pmf[k]
	}
	return &Empirical{pmf: pmf, sf: sf}, nil
}

func (d *Empirical) PMF(k int) float64 {
	if k < 0 || k >= len(d.pmf) {
		return 0
	}
	return d.pmf[k]
}

func (d *Empirical) SF(k int) float64 {
	if k < 0 {
		return 1
	}
	if k >= len(d.sf) {
		return 0
	}
	return d.sf[k]
}

var _ core.AttentionDistribution = (*Empirical)(nil)
