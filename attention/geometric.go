package attention

import (
	"math"

	"github.com/rushteam/revrank/core"
)

// Geometric 是支撑集为 {1, 2, ...} 的几何分布：每看完一个商品，顾客以概率 P 离开。
//
//	PMF(k) = (1-P)^(k-1)·P,  SF(k) = (1-P)^k
type Geometric struct {
	P float64
}

func NewGeometric(p float64) (*Geometric, error) {
	if !(p > 0 && p <= 1) {
		return nil, core.InvalidInput(core.ModuleAttention, "geometric: p must be in (0, 1], got %v", p)
	}
	return &Geometric{P: p}, nil
}

func (d *Geometric) PMF(k int) float64 {
	if k < 1 {
		return 0
	}
	return math.Pow(1-d.P, float64(k-1)) * d.P
}

func (d *Geometric) SF(k int) float64 {
	if k < 1 {
		return 1
	}
	return math.Pow(1-d.P, float64(k))
}

var _ core.AttentionDistribution = (*Geometric)(nil)
