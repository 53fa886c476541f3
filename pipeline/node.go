package pipeline

import (
	"context"

	"github.com/rushteam/revrank/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不可展示的商品
	KindReRank      Kind = "rerank"      // 重排阶段：按期望收益重新排列商品
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充标签或评估结果
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态，Filter 截断、ReRank 重排都是同一种操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RankContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeBuilder 根据配置构建 Node。
type NodeBuilder func(config map[string]interface{}) (Node, error)
