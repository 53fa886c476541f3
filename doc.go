// Package revrank 在级联（cascade）顾客模型下对商品做收益最大化排序。
//
// 设计要点：
// - 顾客自上而下浏览，逐个以 probability 购买，注意力跨度是一个随机变量
// - cascade 包给出固定注意力下的精确最优解，并在随机注意力下用 best-x 逐段补满展示位
// - Pipeline-first: 排序能力以 Node 形式接入（Filter → ReRank → PostProcess）
package revrank

import (
	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pipeline"
)

// 轻量 facade：便于用户直接 import "revrank" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

type Product = core.Product
type Catalog = core.Catalog
type Ranking = core.Ranking
type AttentionDistribution = core.AttentionDistribution
type Plan = cascade.Plan

const (
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// Rank 对目录执行 best-x 补满排序并返回完整结果。
func Rank(catalog Catalog, g AttentionDistribution, capacity int) (*Plan, error) {
	return cascade.Build(catalog, g, capacity)
}
