package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pkg/logging"
)

// Pipeline 把排序逻辑拆成可组合的 Node 链：过滤 -> 收益重排 -> 评估。
// Run 中 rctx.RequestID 为空时自动生成 UUID，便于按请求关联日志。
type Pipeline struct {
	Nodes  []Node
	Logger *zerolog.Logger
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil {
		rctx = &core.RankContext{}
	}
	if rctx.RequestID == "" {
		rctx.RequestID = uuid.NewString()
	}
	logger := logging.OrNop(p.Logger)

	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		logger.Debug().
			Str("request_id", rctx.RequestID).
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("took", time.Since(start)).
			Msg("pipeline node done")
		cur = next
	}
	return cur, nil
}
