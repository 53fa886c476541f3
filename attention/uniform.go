// Package attention 提供常用的注意力跨度分布，均实现 core.AttentionDistribution。
package attention

import "github.com/rushteam/revrank/core"

// Uniform 是 [Low, High) 上的离散均匀分布（与 scipy.stats.randint(low, high) 一致）。
type Uniform struct {
	Low  int
	High int
}

func NewUniform(low, high int) (*Uniform, error) {
	if high <= low {
		return nil, core.InvalidInput(core.ModuleAttention, "uniform: high (%d) must be greater than low (%d)", high, low)
	}
	return &Uniform{Low: low, High: high}, nil
}

func (u *Uniform) width() float64 {
	return float64(u.High - u.Low)
}

func (u *Uniform) PMF(k int) float64 {
	if k < u.Low || k >= u.High {
		return 0
	}
	return 1 / u.width()
}

func (u *Uniform) SF(k int) float64 {
	switch {
	case k < u.Low:
		return 1
	case k >= u.High-1:
		return 0
	}
	return float64(u.High-1-k) / u.width()
}

var _ core.AttentionDistribution = (*Uniform)(nil)
