package rerank

import (
	"context"
	"math"
	"slices"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/revrank/attention"
	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pkg/metrics"
)

func catalog() core.Catalog {
	return core.Catalog{
		"p1": {Revenue: 10, Probability: 0.05},
		"p2": {Revenue: 8, Probability: 0.2},
		"p3": {Revenue: 6, Probability: 0.3},
		"p4": {Revenue: 5, Probability: 0.5},
		"p5": {Revenue: 3, Probability: 0.6},
		"p6": {Revenue: 2, Probability: 0.9},
		"p7": {Revenue: 1, Probability: 1.0},
	}
}

func catalogItems() []*core.Item {
	c := catalog()
	out := make([]*core.Item, 0, len(c))
	for _, id := range c.Keys() {
		out = append(out, core.NewProductItem(id, c[id]))
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestCascadeNode(t *testing.T) {
	g, _ := attention.NewGeometric(0.3)
	rec := metrics.NewRecorder(prometheus.NewRegistry())
	node := &CascadeNode{Attention: g, Capacity: 5, Metrics: rec}
	rctx := &core.RankContext{RequestID: "r1"}

	out, err := node.Process(context.Background(), rctx, catalogItems())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want, _ := cascade.Build(catalog(), g, 5)
	if got := ids(out); !slices.Equal(got, want.Ranking.IDs()) {
		t.Errorf("Process() = %v, want %v", got, want.Ranking.IDs())
	}
	if rctx.Params[ParamExpectedRevenue] != want.ExpectedRevenue {
		t.Errorf("expected_revenue = %v, want %v", rctx.Params[ParamExpectedRevenue], want.ExpectedRevenue)
	}
	if xs, _ := rctx.Params[ParamCascadeXs].([]int); !slices.Equal(xs, want.Xs()) {
		t.Errorf("cascade_xs = %v, want %v", rctx.Params[ParamCascadeXs], want.Xs())
	}
	for i, it := range out {
		if it.Labels[LabelCascadeRank].Value != strconv.Itoa(i+1) {
			t.Errorf("%s rank label = %v, want %d", it.ID, it.Labels[LabelCascadeRank], i+1)
		}
		if i > 0 && it.Score >= out[i-1].Score {
			t.Errorf("scores not decreasing at %d", i)
		}
	}
	if got := testutil.ToFloat64(rec.RankTotal.WithLabelValues("rerank.cascade", "ok")); got != 1 {
		t.Errorf("rank metric = %v, want 1", got)
	}
}

func TestCascadeNodeRequestOverrides(t *testing.T) {
	nodeG, _ := attention.NewGeometric(0.6)
	reqG, _ := attention.NewUniform(1, 4)
	node := &CascadeNode{Attention: nodeG, Capacity: 2, KeepUnranked: true}
	rctx := &core.RankContext{Attention: reqG, Capacity: 5}

	out, err := node.Process(context.Background(), rctx, catalogItems())
	if err != nil {
		t.Fatal(err)
	}
	// Uniform(1,4) 下 best-x 补满的结果为 [p4 p6 p3]，其余按输入顺序追加
	want := []string{"p4", "p6", "p3", "p1", "p2", "p5", "p7"}
	if got := ids(out); !slices.Equal(got, want) {
		t.Errorf("Process() = %v, want %v", got, want)
	}
	if out[3].Score != 0 {
		t.Errorf("unranked item score = %v, want 0", out[3].Score)
	}
}

func TestCascadeNodeErrors(t *testing.T) {
	g, _ := attention.NewGeometric(0.3)
	dup := append(catalogItems(), core.NewProductItem("p1", core.Product{Revenue: 1, Probability: 0.1}))
	missing := append(catalogItems(), core.NewItem("bare"))
	invalid := append(catalogItems(), core.NewProductItem("bad", core.Product{Revenue: 1, Probability: 2}))

	tests := []struct {
		name  string
		node  *CascadeNode
		items []*core.Item
	}{
		{"no attention", &CascadeNode{}, catalogItems()},
		{"duplicate id", &CascadeNode{Attention: g}, dup},
		{"missing feature", &CascadeNode{Attention: g}, missing},
		{"invalid probability", &CascadeNode{Attention: g}, invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.node.Process(context.Background(), nil, tt.items); !core.IsInvalidInput(err) {
				t.Errorf("Process() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestCascadeNodeCustomKeys(t *testing.T) {
	g, _ := attention.NewFixed(2)
	items := []*core.Item{core.NewItem("a"), core.NewItem("b"), core.NewItem("c")}
	for i, it := range items {
		it.Features["price"] = float64(i + 1)
		it.Features["ctr"] = 0.5
	}
	node := &CascadeNode{Attention: g, RevenueKey: "price", ProbabilityKey: "ctr"}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !slices.Equal(got, []string{"c", "b"}) {
		t.Errorf("Process() = %v, want [c b]", got)
	}
}

func TestRevenueNode(t *testing.T) {
	g, _ := attention.NewUniform(1, 4)
	items := []*core.Item{
		core.NewProductItem("A", core.Product{Revenue: 1.2, Probability: 0.1}),
		core.NewProductItem("B", core.Product{Revenue: 2.2, Probability: 0.01}),
		core.NewProductItem("C", core.Product{Revenue: 1.7, Probability: 0.05}),
	}
	rctx := &core.RankContext{}
	out, err := (&RevenueNode{Attention: g}).Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("order changed: %v", got)
	}

	want := 0.1*1.2 + 0.9*0.01*2.2*2/3 + 0.9*0.99*0.05*1.7/3
	got, _ := rctx.Params[ParamExpectedRevenue].(float64)
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("expected_revenue = %v, want %v", got, want)
	}
	if items[0].Labels[LabelRevenueContribution].Value == "" {
		t.Error("missing revenue_contribution label")
	}

	// 只评估第一个位置
	rctx = &core.RankContext{}
	if _, err := (&RevenueNode{Attention: g, Capacity: 1, ParamKey: "rev"}).Process(context.Background(), rctx, items); err != nil {
		t.Fatal(err)
	}
	if got, _ := rctx.Params["rev"].(float64); math.Abs(got-0.12) > 1e-12 {
		t.Errorf("rev = %v, want 0.12", got)
	}
}

func TestTopNNode(t *testing.T) {
	items := catalogItems()
	tests := []struct {
		name string
		n    int
		rctx *core.RankContext
		want int
	}{
		{"explicit", 3, nil, 3},
		{"from request", 0, &core.RankContext{Capacity: 2}, 2},
		{"no limit", 0, nil, len(items)},
		{"larger than input", 100, nil, len(items)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := (&TopNNode{N: tt.n}).Process(context.Background(), tt.rctx, items)
			if len(out) != tt.want {
				t.Errorf("len = %d, want %d", len(out), tt.want)
			}
		})
	}
}
