package core

import "runtime"

// RankConfig 提供排序相关的默认值。
type RankConfig interface {
	// DefaultCapacity 返回默认展示位上限；<= 0 表示不限制（使用全部商品）
	DefaultCapacity() int

	DefaultRevenueKey() string

	DefaultProbabilityKey() string

	// DefaultConcurrency 返回批量排序时的默认并发数
	DefaultConcurrency() int
}

// DefaultRankConfig 是默认的排序配置实现。
type DefaultRankConfig struct{}

func (c *DefaultRankConfig) DefaultCapacity() int {
	return 0
}

func (c *DefaultRankConfig) DefaultRevenueKey() string {
	return FeatureRevenue
}

func (c *DefaultRankConfig) DefaultProbabilityKey() string {
	return FeatureProbability
}

func (c *DefaultRankConfig) DefaultConcurrency() int {
	return runtime.GOMAXPROCS(0)
}
