package builders

import (
	"fmt"

	"github.com/rushteam/revrank/attention"
	"github.com/rushteam/revrank/config"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/filter"
	"github.com/rushteam/revrank/pipeline"
	"github.com/rushteam/revrank/pkg/conv"
	"github.com/rushteam/revrank/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.cascade", BuildCascadeNode)
	config.Register("rerank.revenue", BuildRevenueNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// attentionFromConfig 读取 attention 字段：可以是 map，也可以是 "uniform:1:4" 形式的字符串。
// 字段缺失时返回 nil，由请求级 rctx.Attention 提供。
func attentionFromConfig(cfg map[string]interface{}) (core.AttentionDistribution, error) {
	switch v := cfg["attention"].(type) {
	case nil:
		return nil, nil
	case string:
		return attention.Parse(v)
	case map[string]interface{}:
		return attention.FromConfig(v)
	default:
		return nil, fmt.Errorf("attention: unsupported config type %T", v)
	}
}

func BuildCascadeNode(cfg map[string]interface{}) (pipeline.Node, error) {
	g, err := attentionFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &rerank.CascadeNode{
		Attention:      g,
		Capacity:       int(conv.ConfigGetInt64(cfg, "capacity", 0)),
		RevenueKey:     conv.ConfigGet(cfg, "revenue_key", core.FeatureRevenue),
		ProbabilityKey: conv.ConfigGet(cfg, "probability_key", core.FeatureProbability),
		KeepUnranked:   conv.ConfigGet(cfg, "keep_unranked", false),
	}, nil
}

func BuildRevenueNode(cfg map[string]interface{}) (pipeline.Node, error) {
	g, err := attentionFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &rerank.RevenueNode{
		Attention:      g,
		Capacity:       int(conv.ConfigGetInt64(cfg, "capacity", 0)),
		RevenueKey:     conv.ConfigGet(cfg, "revenue_key", core.FeatureRevenue),
		ProbabilityKey: conv.ConfigGet(cfg, "probability_key", core.FeatureProbability),
		ParamKey:       conv.ConfigGet(cfg, "param_key", rerank.ParamExpectedRevenue),
	}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["item_ids"])
			if ids == nil {
				ids = []string{}
			}
			filters = append(filters, filter.NewBlacklistFilter(ids, nil, ""))

		case "bloom":
			filters = append(filters, filter.NewBloomFilter(nil, "",
				uint(conv.ConfigGetInt64(filterMap, "capacity", 0)),
				conv.ConfigGetFloat64(filterMap, "fp_rate", 0),
				conv.SliceAnyToString(filterMap["item_ids"])...,
			))

		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""), conv.ConfigGet(filterMap, "invert", false))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)

		case "product":
			filters = append(filters, &filter.ProductFilter{
				RevenueKey:     conv.ConfigGet(filterMap, "revenue_key", core.FeatureRevenue),
				ProbabilityKey: conv.ConfigGet(filterMap, "probability_key", core.FeatureProbability),
			})

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}
