package rerank

import (
	"context"

	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pipeline"
	"github.com/rushteam/revrank/pkg/utils"
)

// LabelRevenueContribution 是单个展示位对期望收益的贡献。
const LabelRevenueContribution = "revenue_contribution"

// RevenueNode 按当前 items 顺序计算级联模型下的期望收益，不改变顺序。
// 可以评估任意来源的排序（例如模型分数排序），与 CascadeNode 的结果对比。
//
// 结果写入 rctx.Params[ParamKey]，每个 item 记录 revenue_contribution 标签。
type RevenueNode struct {
	Attention core.AttentionDistribution

	// Capacity 只评估前 Capacity 个 item；<= 0 表示全部
	Capacity int

	RevenueKey     string
	ProbabilityKey string

	// ParamKey 默认 expected_revenue
	ParamKey string
}

func (n *RevenueNode) Name() string {
	return "rerank.revenue"
}

func (n *RevenueNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *RevenueNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil {
		rctx = &core.RankContext{}
	}
	g := n.Attention
	if rctx.Attention != nil {
		g = rctx.Attention
	}
	if g == nil {
		return nil, core.InvalidInput(core.ModulePipeline, "%s: attention distribution is required", n.Name())
	}

	ranked := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			ranked = append(ranked, it)
		}
	}
	if limit := resolveCapacity(n.Capacity, rctx.Capacity, len(ranked)); limit < len(ranked) {
		ranked = ranked[:limit]
	}

	ranking := make(core.Ranking, len(ranked))
	for i, it := range ranked {
		p, ok := it.Product(n.RevenueKey, n.ProbabilityKey)
		if !ok {
			return nil, core.InvalidInput(core.ModulePipeline, "item %q: missing revenue or probability feature", it.ID)
		}
		ranking[i] = core.RankedProduct{ID: it.ID, Product: p}
	}

	total, err := cascade.ExpectedRevenue(ranking, g)
	if err != nil {
		return nil, err
	}

	notConverted := 1.0
	for i, it := range ranked {
		p := ranking[i].Product
		contribution := notConverted * p.Probability * p.Revenue * core.AtLeast(g, i+1)
		it.PutLabel(LabelRevenueContribution, utils.FloatLabel(contribution, n.Name()))
		notConverted *= 1 - p.Probability
	}

	key := n.ParamKey
	if key == "" {
		key = ParamExpectedRevenue
	}
	rctx.SetParam(key, total)
	return items, nil
}
