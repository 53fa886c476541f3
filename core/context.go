package core

import "github.com/rushteam/revrank/pkg/utils"

// RankContext 承载请求/场景信息，贯穿整个 Pipeline 透传。
type RankContext struct {
	RequestID string
	Scene     string
	Query     string // 搜索词；同一场景下不同搜索词通常对应不同的商品目录

	// Attention 是请求级注意力分布，非 nil 时覆盖节点上的默认分布
	Attention AttentionDistribution

	// Capacity 是请求级展示位上限，> 0 时覆盖节点配置
	Capacity int

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数；节点也会把结果写回这里（例如 expected_revenue）
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RankContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RankContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// SetParam 写入请求级参数。
func (rctx *RankContext) SetParam(key string, v any) {
	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[key] = v
}
