package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/revrank/attention"
	"github.com/rushteam/revrank/config"
	_ "github.com/rushteam/revrank/config/builders"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/filter"
	"github.com/rushteam/revrank/pipeline"
	"github.com/rushteam/revrank/rerank"
	"github.com/rushteam/revrank/table"
)

func newPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run a YAML/JSON node pipeline over a product table",
		Long: `Pipeline builds filter / rerank nodes from a pipeline config file
(types: filter, rerank.cascade, rerank.revenue, rerank.topn) and runs them over
the rows of a product table. The output order becomes the rank column.

--attention and --capacity, when given, override the node configs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			input, _ := cmd.Flags().GetString("input")
			pipelinePath, _ := cmd.Flags().GetString("pipeline")

			a := newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := a.runPipeline(cmd.Context(), input, pipelinePath, cmd.Flags().Changed("attention")); err != nil {
				return err
			}
			return a.flushMetrics()
		},
	}
	addTableFlags(cmd)
	cmd.Flags().IntP("capacity", "c", 0, "Request capacity, 0 to use the node configs")
	cmd.Flags().StringP("pipeline", "p", "", "Pipeline config file (.yaml, .yml or .json)")
	_ = cmd.MarkFlagRequired("pipeline")
	return cmd
}

// buildPipeline 构建 Pipeline，并把运行期的日志与指标注入到支持的节点。
func (a *app) buildPipeline(path string) (*pipeline.Pipeline, error) {
	pc, err := pipeline.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	p, err := pc.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return nil, err
	}
	p.Logger = &a.logger
	for _, node := range p.Nodes {
		switch n := node.(type) {
		case *filter.FilterNode:
			n.Logger = &a.logger
			n.Metrics = a.metrics
		case *rerank.CascadeNode:
			n.Logger = &a.logger
			n.Metrics = a.metrics
		}
	}
	return p, nil
}

func (a *app) runPipeline(ctx context.Context, input, pipelinePath string, overrideAttention bool) error {
	rc := a.cfg.Rank
	cols := rc.columns()

	var g core.AttentionDistribution
	if overrideAttention {
		var err error
		if g, err = attention.Parse(rc.Attention); err != nil {
			return err
		}
	}
	p, err := a.buildPipeline(pipelinePath)
	if err != nil {
		return err
	}
	src, err := a.open(ctx, input)
	if err != nil {
		return err
	}
	defer src.Close()

	parts, keys, err := a.partition(src.table)
	if err != nil {
		return err
	}

	summary := runSummary{RunID: a.runID, Capacity: rc.Capacity}
	if overrideAttention {
		summary.Attention = rc.Attention
	}
	rankings := make(map[string]core.Ranking, len(keys))
	for _, key := range keys {
		part := parts[key]
		catalog, err := table.LoadCatalog(part, cols)
		if err != nil {
			return err
		}
		ids, _ := part.Column(cols.Key)
		items := make([]*core.Item, len(ids))
		for i, id := range ids {
			items[i] = core.NewProductItem(id, catalog[id])
		}

		rctx := &core.RankContext{
			RequestID: a.runID,
			Query:     key,
			Attention: g,
			Capacity:  rc.Capacity,
		}
		out, err := p.Run(ctx, rctx, items)
		if err != nil {
			if key != "" {
				return fmt.Errorf("group %q: %w", key, err)
			}
			return err
		}

		ranking := make(core.Ranking, len(out))
		for i, it := range out {
			ranking[i] = core.RankedProduct{ID: it.ID, Product: catalog[it.ID]}
		}
		rankings[key] = ranking

		gs := groupSummary{Group: key, Products: len(items), Ranking: ranking.IDs()}
		if v, ok := rctx.Params[rerank.ParamExpectedRevenue].(float64); ok {
			gs.ExpectedRevenue = v
		}
		if xs, ok := rctx.Params[rerank.ParamCascadeXs].([]int); ok {
			gs.Xs = xs
		}
		summary.Groups = append(summary.Groups, gs)
	}

	switch a.cfg.Format {
	case "json":
		return writeJSON(a.out, summary)
	case "text":
		return writeText(a.out, summary)
	}
	if err := table.SetGroupedRankColumn(src.table, cols, rc.GroupBy, rc.RankColumn, rankings); err != nil {
		return err
	}
	return table.WriteCSV(a.out, src.table)
}
