package attention

import "github.com/rushteam/revrank/core"

// Fixed 是退化分布：所有顾客的注意力都恰好为 Span。
type Fixed struct {
	Span int
}

func NewFixed(span int) (*Fixed, error) {
	if span < 0 {
		return nil, core.InvalidInput(core.ModuleAttention, "fixed: span must be non-negative, got %d", span)
	}
	return &Fixed{Span: span}, nil
}

func (d *Fixed) PMF(k int) float64 {
	if k == d.Span {
		return 1
	}
	return 0
}

func (d *Fixed) SF(k int) float64 {
	if k < d.Span {
		return 1
	}
	return 0
}

var _ core.AttentionDistribution = (*Fixed)(nil)
