package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rushteam/revrank/attention"
	"github.com/rushteam/revrank/table"
)

func newRevenueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revenue",
		Short: "Evaluate the expected revenue of an existing rank column",
		Long: `Revenue reads a ranked product table and evaluates the expected revenue
of the ranking stored in the rank column. Rows with an empty rank are not
displayed; ranks must be distinct positive integers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			input, _ := cmd.Flags().GetString("input")

			a := newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := a.revenue(cmd.Context(), input); err != nil {
				return err
			}
			return a.flushMetrics()
		},
	}
	addTableFlags(cmd)
	return cmd
}

func (a *app) revenue(ctx context.Context, input string) error {
	rc := a.cfg.Rank
	cols := rc.columns()

	g, err := attention.Parse(rc.Attention)
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

	summary := runSummary{RunID: a.runID, Attention: rc.Attention}
	for _, key := range keys {
		part := parts[key]
		ranking, err := table.RankingFromColumn(part, cols, rc.RankColumn)
		if err != nil {
			return err
		}
		rev, err := table.ExpectedRevenue(part, cols, rc.RankColumn, g)
		if err != nil {
			return err
		}
		summary.Groups = append(summary.Groups, groupSummary{
			Group:           key,
			Products:        part.Len(),
			Ranking:         ranking.IDs(),
			ExpectedRevenue: rev,
		})
		a.logger.Debug().Str("group", key).Int("displayed", len(ranking)).Float64("expected_revenue", rev).Msg("evaluated")
	}

	switch a.cfg.Format {
	case "json":
		return writeJSON(a.out, summary)
	case "text":
		return writeText(a.out, summary)
	default:
		return writeRevenueCSV(a, summary)
	}
}

func writeRevenueCSV(a *app, s runSummary) error {
	t, err := table.New("group", "displayed", "expected_revenue")
	if err != nil {
		return err
	}
	for _, g := range s.Groups {
		rev := strconv.FormatFloat(g.ExpectedRevenue, 'g', -1, 64)
		if err := t.AddRow(g.Group, strconv.Itoa(len(g.Ranking)), rev); err != nil {
			return fmt.Errorf("revenue summary: %w", err)
		}
	}
	return table.WriteCSV(a.out, t)
}
