package core

import "sort"

// Product 是可展示商品的收益属性。
//   - Revenue: 商品被购买时带来的收益（非负）
//   - Probability: 顾客看到该商品后购买的条件概率，取值 [0, 1]
type Product struct {
	Revenue     float64 `json:"revenue" yaml:"revenue"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Catalog 是商品目录：key 为商品 ID，value 为商品属性。
// 迭代顺序无意义，算法内部会按确定的顺序排序。
type Catalog map[string]Product

// RankedProduct 是排序结果中的一个位置：(商品 ID, 商品属性)。
type RankedProduct struct {
	ID      string  `json:"id"`
	Product Product `json:"product"`
}

// Ranking 是有序的商品列表，下标 0 为第一个展示位。
type Ranking []RankedProduct

// IDs 返回排序中的商品 ID 列表。
func (r Ranking) IDs() []string {
	ids := make([]string, len(r))
	for i, rp := range r {
		ids[i] = rp.ID
	}
	return ids
}

// Positions 返回 ID -> 展示位（从 1 开始）的映射。
func (r Ranking) Positions() map[string]int {
	pos := make(map[string]int, len(r))
	for i, rp := range r {
		pos[rp.ID] = i + 1
	}
	return pos
}

// Clone 返回一份独立的目录副本。
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for id, p := range c {
		out[id] = p
	}
	return out
}

// Keys 返回按字典序排列的商品 ID。
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for id := range c {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// Ranking 以字典序把目录展开为 Ranking，主要用于测试和调试输出。
func (c Catalog) Ranking() Ranking {
	keys := c.Keys()
	out := make(Ranking, len(keys))
	for i, id := range keys {
		out[i] = RankedProduct{ID: id, Product: c[id]}
	}
	return out
}
