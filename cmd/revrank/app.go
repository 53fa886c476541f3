package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/feast"
	"github.com/rushteam/revrank/pkg/logging"
	"github.com/rushteam/revrank/pkg/metrics"
	"github.com/rushteam/revrank/store"
	"github.com/rushteam/revrank/table"
)

// app 是一次命令运行的上下文。
type app struct {
	cfg      *Config
	runID    string
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Recorder
	out      io.Writer

	// catalogs 非空时保存每个分组的目录与排序计划
	catalogs *store.CatalogRepository
	// features 非空时商品属性从 Feast 读取
	features feast.Client
	closers  []io.Closer
}

func newApp(cfg *Config, out, logOut io.Writer) *app {
	logCfg := cfg.Log
	logCfg.Output = logOut
	runID := uuid.NewString()
	registry := prometheus.NewRegistry()
	return &app{
		cfg:      cfg,
		runID:    runID,
		logger:   logging.New(logCfg).With().Str("run_id", runID).Logger(),
		registry: registry,
		metrics:  metrics.NewRecorder(registry),
		out:      out,
	}
}

// flushMetrics 把指标写入 textfile（node_exporter textfile collector 格式）。
func (a *app) flushMetrics() error {
	if a.cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", a.cfg.MetricsFile, err)
	}
	return nil
}

// connect 按配置连接 Redis 与 Feast。已经设置的依赖保持不变。
func (a *app) connect(ctx context.Context) error {
	if a.catalogs == nil && a.cfg.Store.Redis.Addr != "" {
		rs, err := store.NewRedisStoreWithConfig(ctx, a.cfg.Store.Redis)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rs)
		a.catalogs = store.NewCatalogRepository(rs, a.cfg.Store.Prefix)
	}
	if a.features == nil && a.cfg.Feast.Endpoint != "" {
		client, err := feast.NewClient(a.cfg.Feast.Endpoint, a.cfg.Feast.Project)
		if err != nil {
			a.close()
			return err
		}
		a.closers = append(a.closers, client)
		a.features = client
	}
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

// loadCatalog 读取一个分组的商品目录。
// 配置了 Feast 时只使用表的 key 列，缺少特征的商品不参与排序。
func (a *app) loadCatalog(ctx context.Context, t *table.Table, cols table.Columns) (core.Catalog, error) {
	if a.features == nil {
		return table.LoadCatalog(t, cols)
	}
	ids, err := t.Column(cols.Key)
	if err != nil {
		return nil, err
	}
	fc := a.cfg.Feast
	src := &feast.ProductSource{
		Client:             a.features,
		EntityKey:          fc.EntityKey,
		RevenueFeature:     fc.RevenueFeature,
		ProbabilityFeature: fc.ProbabilityFeature,
		Project:            fc.Project,
		BatchSize:          fc.BatchSize,
	}
	catalog, missing, err := src.LoadCatalog(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		a.logger.Warn().Strs("ids", missing).Msg("products without features are not ranked")
	}
	return catalog, nil
}

// savePlans 保存每个分组的目录与排序计划，未分组时名称为 default。
func (a *app) savePlans(ctx context.Context, reqs []cascade.BatchRequest, results []cascade.BatchResult) error {
	var ttl []int
	if a.cfg.Store.TTL > 0 {
		ttl = []int{a.cfg.Store.TTL}
	}
	for i, res := range results {
		name := res.Key
		if name == "" {
			name = "default"
		}
		if err := a.catalogs.SaveCatalog(ctx, name, reqs[i].Catalog); err != nil {
			return err
		}
		if err := a.catalogs.SavePlan(ctx, name, res.Plan, ttl...); err != nil {
			return err
		}
	}
	a.logger.Info().Int("groups", len(results)).Msg("plans saved")
	return nil
}

// source 是已加载的输入表；SQLite 输入时保留连接以便写回。
type source struct {
	table *table.Table
	db    *sql.DB
}

func (s *source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func (a *app) open(ctx context.Context, input string) (*source, error) {
	if !isSQLite(input) {
		t, err := table.ReadCSVFile(input)
		if err != nil {
			return nil, err
		}
		return &source{table: t}, nil
	}

	db, err := table.OpenSQLite(input)
	if err != nil {
		return nil, err
	}
	t, err := table.ReadSQLite(ctx, db, a.cfg.Rank.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &source{table: t, db: db}, nil
}

// partition 按 GroupBy 拆表；未分组时返回整张表，分组键为空串。
func (a *app) partition(t *table.Table) (map[string]*table.Table, []string, error) {
	if a.cfg.Rank.GroupBy == "" {
		return map[string]*table.Table{"": t}, []string{""}, nil
	}
	if !t.HasColumn(a.cfg.Rank.GroupBy) {
		return nil, nil, core.InvalidInput(core.ModuleTable, "unknown group column %q", a.cfg.Rank.GroupBy)
	}
	return t.Partition(a.cfg.Rank.GroupBy)
}
