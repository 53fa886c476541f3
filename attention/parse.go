package attention

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pkg/conv"
)

// 支持的分布类型。
const (
	TypeUniform   = "uniform"
	TypeGeometric = "geometric"
	TypePoisson   = "poisson"
	TypeBinomial  = "binomial"
	TypeFixed     = "fixed"
	TypeEmpirical = "empirical"
)

// Types 返回支持的分布类型（排序），用于错误提示。
func Types() []string {
	types := []string{TypeUniform, TypeGeometric, TypePoisson, TypeBinomial, TypeFixed, TypeEmpirical}
	sort.Strings(types)
	return types
}

// Parse 解析命令行形式的分布描述：
//
//	uniform:1:4          [1, 4) 上的离散均匀分布
//	geometric:0.3        P = 0.3 的几何分布
//	poisson:2.5          Lambda = 2.5 的泊松分布
//	binomial:10:0.4      N = 10, P = 0.4 的二项分布
//	fixed:5              固定注意力 5
//	empirical:1=3,2=5    经验分布（注意力=频次）
func Parse(s string) (core.AttentionDistribution, error) {
	kind, args, _ := strings.Cut(strings.TrimSpace(s), ":")
	kind = strings.ToLower(kind)
	var parts []string
	if args != "" {
		parts = strings.Split(args, ":")
	}

	switch kind {
	case TypeUniform:
		ints, err := parseInts(kind, parts, 2)
		if err != nil {
			return nil, err
		}
		return NewUniform(ints[0], ints[1])
	case TypeGeometric:
		floats, err := parseFloats(kind, parts, 1)
		if err != nil {
			return nil, err
		}
		return NewGeometric(floats[0])
	case TypePoisson:
		floats, err := parseFloats(kind, parts, 1)
		if err != nil {
			return nil, err
		}
		return NewPoisson(floats[0])
	case TypeBinomial:
		if len(parts) != 2 {
			return nil, argCountError(kind, 2, len(parts))
		}
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, core.InvalidInput(core.ModuleAttention, "binomial: invalid n %q", parts[0])
		}
		p, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, core.InvalidInput(core.ModuleAttention, "binomial: invalid p %q", parts[1])
		}
		return NewBinomial(n, p)
	case TypeFixed:
		ints, err := parseInts(kind, parts, 1)
		if err != nil {
			return nil, err
		}
		return NewFixed(ints[0])
	case TypeEmpirical:
		if len(parts) != 1 {
			return nil, argCountError(kind, 1, len(parts))
		}
		counts := make(map[int]float64)
		for _, pair := range strings.Split(parts[0], ",") {
			k, v, ok := strings.Cut(pair, "=")
			span, err1 := strconv.Atoi(strings.TrimSpace(k))
			count, err2 := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if !ok || err1 != nil || err2 != nil {
				return nil, core.InvalidInput(core.ModuleAttention, "empirical: invalid entry %q (want span=count)", pair)
			}
			counts[span] += count
		}
		return NewEmpirical(counts)
	}
	return nil, core.InvalidInput(core.ModuleAttention, "unknown distribution %q (supported: %v)", kind, Types())
}

// FromConfig 根据 YAML/JSON 配置构建分布，例如：
//
//	attention:
//	  type: uniform
//	  low: 1
//	  high: 4
//
// empirical 的 counts 可以是 {span: count} 映射，也可以是下标即注意力的列表。
func FromConfig(cfg map[string]any) (core.AttentionDistribution, error) {
	if cfg == nil {
		return nil, core.InvalidInput(core.ModuleAttention, "attention config is required")
	}
	kind := strings.ToLower(conv.ConfigGet(cfg, "type", ""))
	switch kind {
	case TypeUniform:
		return NewUniform(int(conv.ConfigGetInt64(cfg, "low", 1)), int(conv.ConfigGetInt64(cfg, "high", 0)))
	case TypeGeometric:
		return NewGeometric(conv.ConfigGetFloat64(cfg, "p", 0))
	case TypePoisson:
		return NewPoisson(conv.ConfigGetFloat64(cfg, "lambda", 0))
	case TypeBinomial:
		return NewBinomial(int(conv.ConfigGetInt64(cfg, "n", 0)), conv.ConfigGetFloat64(cfg, "p", 0))
	case TypeFixed:
		return NewFixed(int(conv.ConfigGetInt64(cfg, "span", -1)))
	case TypeEmpirical:
		counts, err := countsFromConfig(cfg["counts"])
		if err != nil {
			return nil, err
		}
		return NewEmpirical(counts)
	}
	return nil, core.InvalidInput(core.ModuleAttention, "unknown distribution %q (supported: %v)", kind, Types())
}

func countsFromConfig(v any) (map[int]float64, error) {
	counts := make(map[int]float64)
	add := func(k, c any) error {
		span, ok1 := conv.ToInt(k)
		count, ok2 := conv.ToFloat64(c)
		if !ok1 || !ok2 {
			return core.InvalidInput(core.ModuleAttention, "empirical: invalid entry %v=%v", k, c)
		}
		counts[span] += count
		return nil
	}
	switch raw := v.(type) {
	case []any:
		for i, c := range raw {
			if err := add(i, c); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for k, c := range raw {
			if err := add(k, c); err != nil {
				return nil, err
			}
		}
	case map[any]any:
		for k, c := range raw {
			if err := add(k, c); err != nil {
				return nil, err
			}
		}
	default:
		return nil, core.InvalidInput(core.ModuleAttention, "empirical: counts must be a list or a map")
	}
	return counts, nil
}

func argCountError(kind string, want, got int) error {
	return core.InvalidInput(core.ModuleAttention, "%s: expected %d argument(s), got %d", kind, want, got)
}

func parseInts(kind string, parts []string, want int) ([]int, error) {
	if len(parts) != want {
		return nil, argCountError(kind, want, len(parts))
	}
	out := make([]int, want)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, core.InvalidInput(core.ModuleAttention, "%s: invalid integer %q", kind, p)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(kind string, parts []string, want int) ([]float64, error) {
	if len(parts) != want {
		return nil, argCountError(kind, want, len(parts))
	}
	out := make([]float64, want)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, core.InvalidInput(core.ModuleAttention, "%s: invalid number %q", kind, p)
		}
		out[i] = v
	}
	return out, nil
}
