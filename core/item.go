package core

import (
	"math"

	"github.com/rushteam/revrank/pkg/utils"
)

// 商品在 Pipeline 中使用的默认特征名。
const (
	FeatureRevenue     = "revenue"
	FeatureProbability = "probability"
)

// Item 是 Pipeline 中的统一承载结构：特征、分数、元信息、标签。
// 级联排序需要的 revenue / probability 以特征形式携带。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewProductItem 根据商品属性创建 Item，特征名使用默认值。
func NewProductItem(id string, p Product) *Item {
	it := NewItem(id)
	it.Features[FeatureRevenue] = p.Revenue
	it.Features[FeatureProbability] = p.Probability
	return it
}

// Product 从特征中读取商品属性；任一特征缺失时 ok 为 false。
// 空字符串表示使用默认特征名。
func (it *Item) Product(revenueKey, probabilityKey string) (Product, bool) {
	if revenueKey == "" {
		revenueKey = FeatureRevenue
	}
	if probabilityKey == "" {
		probabilityKey = FeatureProbability
	}
	r, ok1 := it.Features[revenueKey]
	p, ok2 := it.Features[probabilityKey]
	if !ok1 || !ok2 {
		return Product{}, false
	}
	return Product{Revenue: r, Probability: p}, true
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ExpectedValue 是单个商品的 p * r，常用作短视（myopic）基线分数。
func (p Product) ExpectedValue() float64 {
	return p.Probability * p.Revenue
}

// Valid 判断商品属性是否落在合法区间内（revenue 有限且非负，probability ∈ [0,1]）。
func (p Product) Valid() bool {
	if math.IsNaN(p.Revenue) || math.IsInf(p.Revenue, 0) || p.Revenue < 0 {
		return false
	}
	return p.Probability >= 0 && p.Probability <= 1
}
