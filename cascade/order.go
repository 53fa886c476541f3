package cascade

import (
	"cmp"
	"slices"

	"github.com/rushteam/revrank/core"
)

// compareLemma1 是固定注意力问题的排序键：按 (revenue, probability) 降序，
// 二者都相同时按 ID 升序，避免依赖 map 的迭代顺序。
// 固定注意力问题的任何最优排序都满足这个顺序。
func compareLemma1(a, b core.RankedProduct) int {
	if c := cmp.Compare(b.Product.Revenue, a.Product.Revenue); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Product.Probability, a.Product.Probability); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// sortCatalog 把目录展开并按 compareLemma1 排序。
func sortCatalog(catalog core.Catalog) []core.RankedProduct {
	sorted := make([]core.RankedProduct, 0, len(catalog))
	for id, p := range catalog {
		sorted = append(sorted, core.RankedProduct{ID: id, Product: p})
	}
	slices.SortFunc(sorted, compareLemma1)
	return sorted
}
