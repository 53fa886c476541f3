package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/revrank/attention"
	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/table"
)

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank products with the best-x full-capacity algorithm",
		Long: `Rank reads a product table (CSV or SQLite), ranks it under the given
attention distribution and writes the rank column. Rows that are not
displayed get an empty rank.

SQLite inputs are updated in place unless --group-by is set.

With --feast-endpoint the revenue and probability of each product are read
from Feast online features keyed by the table's key column; products
without features are left unranked. With --redis-addr each group's
catalog and plan are saved to Redis under the group value, or "default"
when the table is not grouped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")

			a := newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			defer a.close()
			if err := a.rank(cmd.Context(), input, output); err != nil {
				return err
			}
			return a.flushMetrics()
		},
	}
	addTableFlags(cmd)
	cmd.Flags().IntP("capacity", "c", 0, "Number of display positions, 0 for all rows")
	cmd.Flags().Int("concurrency", 0, "Groups ranked concurrently, 0 for GOMAXPROCS")
	cmd.Flags().StringP("output", "o", "", "Also write the ranked table to this CSV file")
	cmd.Flags().String("redis-addr", "", "Save catalogs and plans to this Redis server")
	cmd.Flags().Int("redis-db", 0, "Redis database number")
	cmd.Flags().String("store-prefix", "", "Key prefix for saved catalogs and plans (default revrank)")
	cmd.Flags().Int("plan-ttl", 0, "Expire saved plans after this many seconds, 0 to keep")
	cmd.Flags().String("feast-endpoint", "", "Read revenue and probability from this Feast serving endpoint")
	cmd.Flags().String("feast-project", "", "Feast project")
	cmd.Flags().String("revenue-feature", "", "Feast feature holding the revenue, e.g. product_stats:price")
	cmd.Flags().String("probability-feature", "", "Feast feature holding the purchase probability")
	return cmd
}

// groupSummary 是一个分组的排序结果。
type groupSummary struct {
	Group           string   `json:"group,omitempty"`
	Products        int      `json:"products"`
	Ranking         []string `json:"ranking"`
	Xs              []int    `json:"xs,omitempty"`
	ExpectedRevenue float64  `json:"expected_revenue"`
}

type runSummary struct {
	RunID     string         `json:"run_id"`
	Attention string         `json:"attention"`
	Capacity  int            `json:"capacity,omitempty"`
	Groups    []groupSummary `json:"groups"`
}

func (a *app) rank(ctx context.Context, input, output string) error {
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

	reqs := make([]cascade.BatchRequest, len(keys))
	for i, key := range keys {
		catalog, err := a.loadCatalog(ctx, parts[key], cols)
		if err != nil {
			if key != "" {
				return fmt.Errorf("group %q: %w", key, err)
			}
			return err
		}
		capacity := rc.Capacity
		if capacity < 1 {
			capacity = len(catalog)
		}
		reqs[i] = cascade.BatchRequest{Key: key, Catalog: catalog, Attention: g, Capacity: capacity}
	}

	a.logger.Info().
		Str("input", input).
		Str("attention", rc.Attention).
		Int("groups", len(keys)).
		Int("rows", src.table.Len()).
		Msg("ranking")

	limit := rc.Concurrency
	if limit == 0 {
		limit = (&core.DefaultRankConfig{}).DefaultConcurrency()
	}
	start := time.Now()
	results, err := cascade.RankBatch(ctx, reqs, limit)
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.RecordRank("cli", src.table.Len(), 0, 0, elapsed, err)
		return err
	}

	summary := runSummary{RunID: a.runID, Attention: rc.Attention, Capacity: rc.Capacity}
	rankings := make(map[string]core.Ranking, len(results))
	for i, res := range results {
		rankings[res.Key] = res.Plan.Ranking

		a.metrics.RecordRank("cli", len(reqs[i].Catalog), len(res.Plan.Segments), res.Plan.ExpectedRevenue, elapsed, nil)
		a.logger.Debug().
			Str("group", res.Key).
			Int("products", len(reqs[i].Catalog)).
			Ints("xs", res.Plan.Xs()).
			Float64("expected_revenue", res.Plan.ExpectedRevenue).
			Msg("group ranked")

		summary.Groups = append(summary.Groups, groupSummary{
			Group:           res.Key,
			Products:        len(reqs[i].Catalog),
			Ranking:         res.Plan.Ranking.IDs(),
			Xs:              res.Plan.Xs(),
			ExpectedRevenue: res.Plan.ExpectedRevenue,
		})
	}

	if a.catalogs != nil {
		if err := a.savePlans(ctx, reqs, results); err != nil {
			return err
		}
	}

	out := src.table
	if err := table.SetGroupedRankColumn(out, cols, rc.GroupBy, rc.RankColumn, rankings); err != nil {
		return err
	}

	if src.db != nil {
		if rc.GroupBy != "" {
			a.logger.Warn().Msg("sqlite write-back skipped for grouped ranking; use --output")
		} else if err := table.WriteRankSQLite(ctx, src.db, rc.Table, rc.KeyColumn, rc.RankColumn, results[0].Plan.Ranking); err != nil {
			return err
		}
	}
	if output != "" {
		if err := table.WriteCSVFile(output, out); err != nil {
			return err
		}
	}
	a.logger.Info().Dur("elapsed", elapsed).Msg("ranked")

	switch a.cfg.Format {
	case "json":
		return writeJSON(a.out, summary)
	case "text":
		return writeText(a.out, summary)
	default:
		return table.WriteCSV(a.out, out)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeText(w io.Writer, s runSummary) error {
	for _, g := range s.Groups {
		name := g.Group
		if name == "" {
			name = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\tproducts=%d\tranking=%s\txs=%v\texpected_revenue=%.6f\n",
			name, g.Products, strings.Join(g.Ranking, ","), g.Xs, g.ExpectedRevenue); err != nil {
			return err
		}
	}
	return nil
}
