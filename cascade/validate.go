package cascade

import (
	"math"

	"github.com/rushteam/revrank/core"
)

// ValidateCatalog 校验目录中每个商品：revenue 为有限非负数，probability ∈ [0, 1]。
// 按 ID 字典序检查，保证同一输入总是报告同一个错误。
func ValidateCatalog(catalog core.Catalog) error {
	for _, id := range catalog.Keys() {
		if err := validateProduct(id, catalog[id]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRanking 校验排序中每个位置的商品属性。
func ValidateRanking(ranking core.Ranking) error {
	for _, rp := range ranking {
		if err := validateProduct(rp.ID, rp.Product); err != nil {
			return err
		}
	}
	return nil
}

func validateProduct(id string, p core.Product) error {
	switch {
	case math.IsNaN(p.Revenue) || math.IsInf(p.Revenue, 0):
		return core.InvalidInput(core.ModuleCascade, "product %q: revenue must be finite, got %v", id, p.Revenue)
	case p.Revenue < 0:
		return core.InvalidInput(core.ModuleCascade, "product %q: revenue must be non-negative, got %v", id, p.Revenue)
	case !(p.Probability >= 0 && p.Probability <= 1):
		return core.InvalidInput(core.ModuleCascade, "product %q: probability must be in [0, 1], got %v", id, p.Probability)
	}
	return nil
}

func validateCapacity(capacity int) error {
	if capacity < 0 {
		return core.InvalidInput(core.ModuleCascade, "capacity must be non-negative, got %d", capacity)
	}
	return nil
}

func validateOffset(offset int) error {
	if offset < 0 {
		return core.InvalidInput(core.ModuleCascade, "offset must be non-negative, got %d", offset)
	}
	return nil
}

func validateDistribution(g core.AttentionDistribution) error {
	if g == nil {
		return core.InvalidInput(core.ModuleCascade, "attention distribution is required")
	}
	return nil
}
