package cascade

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/revrank/core"
)

// BatchRequest 是一个独立的排序任务，例如一个搜索词下的商品目录。
type BatchRequest struct {
	Key       string
	Catalog   core.Catalog
	Attention core.AttentionDistribution
	Capacity  int
}

// BatchResult 与 BatchRequest 一一对应，顺序一致。
type BatchResult struct {
	Key  string
	Plan *Plan
}

// RankBatch 并发地对多个目录执行 Build。
// 单个任务内部仍是顺序计算，结果与逐个调用 Build 完全相同。
// limit <= 0 表示不限制并发数；任一任务出错时返回第一个错误。
func RankBatch(ctx context.Context, reqs []BatchRequest, limit int) ([]BatchResult, error) {
	results := make([]BatchResult, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i := range reqs {
		req := reqs[i]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			plan, err := Build(req.Catalog, req.Attention, req.Capacity)
			if err != nil {
				return fmt.Errorf("rank %q: %w", req.Key, err)
			}
			results[i] = BatchResult{Key: req.Key, Plan: plan}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
