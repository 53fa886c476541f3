package filter

import (
	"context"

	"github.com/rushteam/revrank/core"
)

// ProductFilter 过滤掉没有合法商品属性的 item：
// revenue / probability 特征缺失，revenue 为负或非有限值，probability 不在 [0, 1]。
// 放在 rerank.cascade 之前，可以把脏数据剔除而不是让整次排序失败。
type ProductFilter struct {
	RevenueKey     string
	ProbabilityKey string
}

func (f *ProductFilter) Name() string {
	return "filter.product"
}

func (f *ProductFilter) ShouldFilter(
	_ context.Context,
	_ *core.RankContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	p, ok := item.Product(f.RevenueKey, f.ProbabilityKey)
	return !ok || !p.Valid(), nil
}
