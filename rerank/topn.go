package rerank

import (
	"context"

	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，把结果限制在展示位数量以内。
// 通常放在 CascadeNode（KeepUnranked = true）之后，或用于截断其他来源的排序。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rerank.CascadeNode{Attention: g, KeepUnranked: true},
//	        &rerank.TopNNode{N: 20},
//	    },
//	}
type TopNNode struct {
	// N 要保留的商品数量
	// 如果 N <= 0，使用 rctx.Capacity；二者都 <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Capacity
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
