package attention

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rushteam/revrank/core"
)

// Poisson 是参数为 Lambda 的泊松分布。
type Poisson struct {
	dist distuv.Poisson
}

func NewPoisson(lambda float64) (*Poisson, error) {
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return nil, core.InvalidInput(core.ModuleAttention, "poisson: lambda must be positive, got %v", lambda)
	}
	return &Poisson{dist: distuv.Poisson{Lambda: lambda}}, nil
}

func (d *Poisson) Lambda() float64 { return d.dist.Lambda }

func (d *Poisson) PMF(k int) float64 {
	if k < 0 {
		return 0
	}
	return d.dist.Prob(float64(k))
}

func (d *Poisson) SF(k int) float64 {
	if k < 0 {
		return 1
	}
	return d.dist.Survival(float64(k))
}

// Binomial 是 N 次试验、成功概率 P 的二项分布，适合展示位固定为 N、
// 每个位置被浏览概率相同的场景。
type Binomial struct {
	dist distuv.Binomial
}

func NewBinomial(n int, p float64) (*Binomial, error) {
	if n < 0 {
		return nil, core.InvalidInput(core.ModuleAttention, "binomial: n must be non-negative, got %d", n)
	}
	if !(p > 0 && p < 1) {
		return nil, core.InvalidInput(core.ModuleAttention, "binomial: p must be in (0, 1), got %v", p)
	}
	return &Binomial{dist: distuv.Binomial{N: float64(n), P: p}}, nil
}

func (d *Binomial) PMF(k int) float64 {
	if k < 0 || float64(k) > d.dist.N {
		return 0
	}
	return d.dist.Prob(float64(k))
}

func (d *Binomial) SF(k int) float64 {
	if k < 0 {
		return 1
	}
	if float64(k) >= d.dist.N {
		return 0
	}
	return d.dist.Survival(float64(k))
}

var (
	_ core.AttentionDistribution = (*Poisson)(nil)
	_ core.AttentionDistribution = (*Binomial)(nil)
)
