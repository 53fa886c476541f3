package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/revrank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，可以并发地对多个 item 求值。
//
// 表达式语法（CEL 标准语法）：
//   - 商品属性：item.revenue > 1.0 / item.probability >= 0.05
//   - 期望值：item.revenue * item.probability > 0.2
//   - 特征：item.features.margin > 0.3
//   - 标签：label.category == "A" / has(label.segment)
//   - 请求：rctx.scene == "search" && rctx.query.startsWith("shoe")
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string {
	return p.expr
}

// Eval 对单个 item 求值。
func (p *Program) Eval(item *core.Item, rctx *core.RankContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 会报错，应先用 has(label.key) 判断
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Eval 是一次性的解释器：每次 Evaluate 都会重新编译表达式。
// 需要对大量 item 求同一个表达式时使用 Compile。
type Eval struct {
	item *core.Item
	rctx *core.RankContext
}

func NewEval(item *core.Item, rctx *core.RankContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 解析并执行表达式，返回布尔结果。
func (e *Eval) Evaluate(expr string) (bool, error) {
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(e.item, e.rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RankContext) map[string]interface{} {
	if it == nil {
		it = &core.Item{}
	}
	if rctx == nil {
		rctx = &core.RankContext{}
	}

	labels := make(map[string]interface{}, len(it.Labels))
	labelAccessor := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
		labelAccessor[k] = v.Value
	}

	features := make(map[string]interface{}, len(it.Features))
	for k, v := range it.Features {
		features[k] = v
	}

	item := map[string]interface{}{
		"id":       it.ID,
		"score":    it.Score,
		"features": features,
		"labels":   labels,
	}
	if it.Meta != nil {
		item["meta"] = it.Meta
	} else {
		item["meta"] = map[string]interface{}{}
	}
	// revenue / probability 直接挂在 item 上，缺失时为 null
	for _, key := range []string{core.FeatureRevenue, core.FeatureProbability} {
		if v, ok := it.Features[key]; ok {
			item[key] = v
		} else {
			item[key] = nil
		}
	}

	params := rctx.Params
	if params == nil {
		params = map[string]any{}
	}
	rc := map[string]interface{}{
		"request_id": rctx.RequestID,
		"scene":      rctx.Scene,
		"query":      rctx.Query,
		"capacity":   int64(rctx.Capacity),
		"params":     params,
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rc,
	}
}
