package filter

import (
	"context"

	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤商品，表达式编译一次后复用。
//
//	// 只保留期望值不低于 0.1 的商品
//	f, _ := filter.NewExprFilter("item.revenue * item.probability >= 0.1", false)
type ExprFilter struct {
	program *dsl.Program

	// Invert 为 false 时表达式为 true 的商品被保留，为 true 时被过滤
	Invert bool
}

func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.InvalidInput(core.ModulePipeline, "filter expr %q: %v", expr, err)
	}
	return &ExprFilter{program: p, Invert: invert}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RankContext,
	item *core.Item,
) (bool, error) {
	ok, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	if f.Invert {
		return ok, nil
	}
	return !ok, nil
}
