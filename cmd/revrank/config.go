package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pkg/logging"
	"github.com/rushteam/revrank/store"
	"github.com/rushteam/revrank/table"
)

const (
	envPrefix     = "REVRANK_"
	configPathEnv = "REVRANK_CONFIG"
)

// Config 是命令行的完整配置。
// 优先级：命令行参数 > 环境变量 REVRANK_* > 配置文件 > 默认值。
type Config struct {
	Log   logging.Config `koanf:"log"`
	Rank  RankConfig     `koanf:"rank"`
	Store StoreConfig    `koanf:"store"`
	Feast FeastConfig    `koanf:"feast"`

	// Format 标准输出格式：csv 输出排好的表，text / json 输出摘要
	Format string `koanf:"format" validate:"oneof=csv text json"`

	// MetricsFile 非空时把本次运行的 Prometheus 指标写成 textfile
	MetricsFile string `koanf:"metrics_file"`
}

// RankConfig 排序相关配置
type RankConfig struct {
	// Attention 注意力分布，例如 uniform:1:4、geometric:0.3
	Attention string `koanf:"attention" validate:"required"`

	// Capacity 展示位数，0 表示全部行
	Capacity int `koanf:"capacity" validate:"gte=0"`

	KeyColumn         string `koanf:"key_column" validate:"required"`
	RevenueColumn     string `koanf:"revenue_column" validate:"required"`
	ProbabilityColumn string `koanf:"probability_column" validate:"required"`
	RankColumn        string `koanf:"rank_column" validate:"required"`

	// GroupBy 非空时按该列分组，每组独立排序
	GroupBy string `koanf:"group_by"`

	// Concurrency 分组排序的并发数，0 表示 GOMAXPROCS
	Concurrency int `koanf:"concurrency" validate:"gte=0"`

	// Table SQLite 输入的表名
	Table string `koanf:"table"`
}

// StoreConfig 排序结果的存储。Redis.Addr 为空时不保存
type StoreConfig struct {
	Redis  store.RedisConfig `koanf:"redis"`
	Prefix string            `koanf:"prefix"`

	// TTL 排序计划的过期秒数，0 表示不过期
	TTL int `koanf:"ttl" validate:"gte=0"`
}

// FeastConfig Endpoint 非空时商品属性从 Feast 在线特征读取，输入表只需要 key 列
type FeastConfig struct {
	Endpoint           string `koanf:"endpoint"`
	Project            string `koanf:"project"`
	EntityKey          string `koanf:"entity_key"`
	RevenueFeature     string `koanf:"revenue_feature" validate:"required_with=Endpoint"`
	ProbabilityFeature string `koanf:"probability_feature" validate:"required_with=Endpoint"`
	BatchSize          int    `koanf:"batch_size" validate:"gte=0"`
}

func (c RankConfig) columns() table.Columns {
	return table.Columns{
		Key:         c.KeyColumn,
		Revenue:     c.RevenueColumn,
		Probability: c.ProbabilityColumn,
	}
}

func defaultConfig() *Config {
	return &Config{
		Log: logging.Config{Level: "info", Format: "console"},
		Rank: RankConfig{
			Attention:         "uniform:1:4",
			KeyColumn:         table.DefaultKeyColumn,
			RevenueColumn:     core.FeatureRevenue,
			ProbabilityColumn: core.FeatureProbability,
			RankColumn:        table.DefaultRankColumn,
			Table:             "products",
		},
		Store:  StoreConfig{Prefix: "revrank"},
		Feast:  FeastConfig{EntityKey: "product_id"},
		Format: "csv",
	}
}

// loadConfig 按 默认值 → 配置文件 → 环境变量 的顺序加载配置。
// path 为空时读取 REVRANK_CONFIG。
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// REVRANK_RANK_CAPACITY -> rank.capacity
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	switch section {
	case "store":
		// REVRANK_STORE_REDIS_ADDR -> store.redis.addr
		if sub, ok := strings.CutPrefix(rest, "redis_"); ok {
			return "store.redis." + sub
		}
		return section + "." + rest
	case "log", "rank", "feast":
		return section + "." + rest
	}
	return key
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// applyFlags 用显式设置过的命令行参数覆盖配置。
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	str("format", &cfg.Format)
	str("metrics-file", &cfg.MetricsFile)
	str("attention", &cfg.Rank.Attention)
	str("key-column", &cfg.Rank.KeyColumn)
	str("revenue-column", &cfg.Rank.RevenueColumn)
	str("probability-column", &cfg.Rank.ProbabilityColumn)
	str("rank-column", &cfg.Rank.RankColumn)
	str("group-by", &cfg.Rank.GroupBy)
	str("table", &cfg.Rank.Table)
	str("redis-addr", &cfg.Store.Redis.Addr)
	str("store-prefix", &cfg.Store.Prefix)
	str("feast-endpoint", &cfg.Feast.Endpoint)
	str("feast-project", &cfg.Feast.Project)
	str("revenue-feature", &cfg.Feast.RevenueFeature)
	str("probability-feature", &cfg.Feast.ProbabilityFeature)
	num("capacity", &cfg.Rank.Capacity)
	num("concurrency", &cfg.Rank.Concurrency)
	num("redis-db", &cfg.Store.Redis.DB)
	num("plan-ttl", &cfg.Store.TTL)
}

// resolveConfig 加载配置、应用命令行参数并校验。
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addTableFlags 注册 rank / revenue 共用的参数。
func addTableFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("input", "i", "", "Input file: CSV, or SQLite database (.db, .sqlite, .sqlite3)")
	f.String("table", "", "Table name for SQLite input (default products)")
	f.StringP("attention", "a", "", "Attention distribution, e.g. uniform:1:4, geometric:0.3, poisson:2")
	f.String("key-column", "", "Product key column (default id)")
	f.String("revenue-column", "", "Revenue column (default revenue)")
	f.String("probability-column", "", "Purchase probability column (default probability)")
	f.String("rank-column", "", "Rank column (default rank)")
	f.String("group-by", "", "Rank each group of rows sharing this column's value independently")
	f.String("format", "", "Stdout format: csv, text or json")
	f.String("metrics-file", "", "Write Prometheus metrics of this run to a textfile")
	_ = cmd.MarkFlagRequired("input")
}
