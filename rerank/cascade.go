package rerank

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pipeline"
	"github.com/rushteam/revrank/pkg/logging"
	"github.com/rushteam/revrank/pkg/metrics"
	"github.com/rushteam/revrank/pkg/utils"
)

// 写入 item / RankContext 的 key。
const (
	LabelCascadeRank    = "cascade_rank"    // 展示位，从 1 开始
	LabelCascadeSegment = "cascade_segment" // 第几轮 best-x 选择，从 1 开始
	LabelCascadeX       = "cascade_x"       // 该轮选中的 x

	ParamExpectedRevenue = "expected_revenue"
	ParamCascadeXs       = "cascade_xs"
)

// CascadeNode 按级联模型重排商品：把 items 视为商品目录，用 best-x 补满策略
// 选出期望收益最高的展示顺序。
//
// 每个 item 需要携带 revenue / probability 特征（特征名可配置）。
// 请求级的 rctx.Attention / rctx.Capacity 优先于节点配置。
//
// 示例：
//
//	g, _ := attention.NewGeometric(0.3)
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &filter.FilterNode{Filters: []filter.Filter{&filter.ProductFilter{}}},
//	        &rerank.CascadeNode{Attention: g, Capacity: 10},
//	        &rerank.RevenueNode{Attention: g},
//	    },
//	}
type CascadeNode struct {
	Attention core.AttentionDistribution

	// Capacity 展示位上限；<= 0 表示不限制（等于 item 数）
	Capacity int

	RevenueKey     string
	ProbabilityKey string

	// KeepUnranked 为 true 时，未被选中的 item 按输入顺序追加在排序之后
	KeepUnranked bool

	Logger  *zerolog.Logger
	Metrics *metrics.Recorder
}

func (n *CascadeNode) Name() string {
	return "rerank.cascade"
}

func (n *CascadeNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *CascadeNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil {
		rctx = &core.RankContext{}
	}
	logger := logging.OrNop(n.Logger)
	start := time.Now()

	g := n.Attention
	if rctx.Attention != nil {
		g = rctx.Attention
	}
	if g == nil {
		return nil, core.InvalidInput(core.ModulePipeline, "%s: attention distribution is required", n.Name())
	}

	catalog, byID, err := itemsToCatalog(items, n.RevenueKey, n.ProbabilityKey)
	if err != nil {
		return nil, err
	}

	capacity := resolveCapacity(n.Capacity, rctx.Capacity, len(catalog))
	plan, err := cascade.Build(catalog, g, capacity)
	n.Metrics.RecordRank(n.Name(), len(catalog), segmentsOf(plan), revenueOf(plan), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(items))
	rank := 0
	for si, seg := range plan.Segments {
		for _, rp := range seg.Ranking {
			rank++
			it := byID[rp.ID]
			it.Score = float64(len(plan.Ranking) - rank + 1)
			it.PutLabel(LabelCascadeRank, utils.IntLabel(rank, n.Name()))
			it.PutLabel(LabelCascadeSegment, utils.IntLabel(si+1, n.Name()))
			it.PutLabel(LabelCascadeX, utils.IntLabel(seg.X, n.Name()))
			out = append(out, it)
		}
		logger.Debug().
			Str("request_id", rctx.RequestID).
			Int("segment", si+1).
			Int("x", seg.X).
			Int("offset", seg.Offset).
			Float64("lower_bound", seg.LowerBound).
			Msg("best-x segment")
	}

	if n.KeepUnranked {
		placed := plan.Ranking.Positions()
		for _, it := range items {
			if it == nil {
				continue
			}
			if _, ok := placed[it.ID]; !ok {
				it.Score = 0
				out = append(out, it)
			}
		}
	}

	rctx.SetParam(ParamExpectedRevenue, plan.ExpectedRevenue)
	rctx.SetParam(ParamCascadeXs, plan.Xs())
	logger.Debug().
		Str("request_id", rctx.RequestID).
		Int("catalog_size", len(catalog)).
		Int("capacity", capacity).
		Int("ranked", len(plan.Ranking)).
		Float64("expected_revenue", plan.ExpectedRevenue).
		Msg("cascade rerank done")
	return out, nil
}

// itemsToCatalog 把 items 转为商品目录；nil item 被跳过。
// 重复 ID 或缺少商品特征属于输入错误。
func itemsToCatalog(items []*core.Item, revenueKey, probabilityKey string) (core.Catalog, map[string]*core.Item, error) {
	catalog := make(core.Catalog, len(items))
	byID := make(map[string]*core.Item, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, dup := byID[it.ID]; dup {
			return nil, nil, core.InvalidInput(core.ModulePipeline, "duplicate item id %q", it.ID)
		}
		p, ok := it.Product(revenueKey, probabilityKey)
		if !ok {
			return nil, nil, core.InvalidInput(core.ModulePipeline, "item %q: missing revenue or probability feature", it.ID)
		}
		catalog[it.ID] = p
		byID[it.ID] = it
	}
	return catalog, byID, nil
}

// resolveCapacity：请求级 > 节点配置 > 全部商品。
func resolveCapacity(node, request, n int) int {
	switch {
	case request > 0:
		return request
	case node > 0:
		return node
	}
	return n
}

func segmentsOf(plan *cascade.Plan) int {
	if plan == nil {
		return 0
	}
	return len(plan.Segments)
}

func revenueOf(plan *cascade.Plan) float64 {
	if plan == nil {
		return 0
	}
	return plan.ExpectedRevenue
}
