package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pipeline"
	"github.com/rushteam/revrank/pkg/logging"
	"github.com/rushteam/revrank/pkg/metrics"
	"github.com/rushteam/revrank/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该商品就会被过滤掉。
// 过滤器出错时记录日志并视为保留，不中断流程。
type FilterNode struct {
	Filters []Filter

	Logger  *zerolog.Logger
	Metrics *metrics.Recorder
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	logger := logging.OrNop(n.Logger)

	out := make([]*core.Item, 0, len(items))
	filtered := make(map[string]int)

	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				logger.Warn().Err(err).Str("filter", f.Name()).Str("item", item.ID).Msg("filter failed, item kept")
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			filtered[filterReason]++
			// 记录过滤原因，用于调试/观测
			item.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, item)
	}

	for name, count := range filtered {
		n.Metrics.RecordFiltered(name, count)
	}
	logger.Debug().Int("in", len(items)).Int("out", len(out)).Msg("filter done")
	return out, nil
}
