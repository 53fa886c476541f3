package filter

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pkg/metrics"
	"github.com/rushteam/revrank/store"
)

func items() []*core.Item {
	return []*core.Item{
		core.NewProductItem("p1", core.Product{Revenue: 10, Probability: 0.05}),
		core.NewProductItem("p2", core.Product{Revenue: 8, Probability: 0.2}),
		core.NewProductItem("p3", core.Product{Revenue: 6, Probability: 0.3}),
		core.NewProductItem("p4", core.Product{Revenue: 5, Probability: 0.5}),
	}
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

type errFilter struct{}

func (errFilter) Name() string { return "filter.err" }

func (errFilter) ShouldFilter(context.Context, *core.RankContext, *core.Item) (bool, error) {
	return true, errors.New("backend down")
}

func TestFilterNode(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	adapter := NewStoreAdapter(s)
	if err := adapter.SetBlacklist(ctx, "blacklist:search", []string{"p3"}); err != nil {
		t.Fatal(err)
	}
	expr, err := NewExprFilter("item.revenue * item.probability >= 0.6", false)
	if err != nil {
		t.Fatal(err)
	}

	rec := metrics.NewRecorder(prometheus.NewRegistry())
	node := &FilterNode{
		Filters: []Filter{
			errFilter{},
			NewBlacklistFilter([]string{"p1"}, adapter, "blacklist:search"),
			expr,
		},
		Metrics: rec,
	}

	in := items()
	out, err := node.Process(ctx, &core.RankContext{}, append(in, nil))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// p1 内存黑名单，p3 存储黑名单，p2 期望值 1.6 保留，p4 期望值 2.5 保留
	if got := ids(out); !slices.Equal(got, []string{"p2", "p4"}) {
		t.Errorf("Process() = %v, want [p2 p4]", got)
	}
	if lbl := in[0].Labels["filtered"]; lbl.Source != "filter.blacklist" {
		t.Errorf("p1 filtered label = %v", lbl)
	}
	if got := testutil.ToFloat64(rec.Filtered.WithLabelValues("filter.blacklist")); got != 2 {
		t.Errorf("blacklist metric = %v, want 2", got)
	}
}

func TestFilterNodeEmpty(t *testing.T) {
	node := &FilterNode{}
	in := items()
	out, err := node.Process(context.Background(), nil, in)
	if err != nil || len(out) != len(in) {
		t.Errorf("Process() = (%v, %v)", ids(out), err)
	}
}

func TestBlacklistMissingKey(t *testing.T) {
	f := NewBlacklistFilter(nil, NewStoreAdapter(store.NewMemoryStore()), "nope")
	ok, err := f.ShouldFilter(context.Background(), nil, items()[0])
	if err != nil || ok {
		t.Errorf("ShouldFilter() = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestExprFilterInvert(t *testing.T) {
	f, err := NewExprFilter(`item.id == "p2"`, true)
	if err != nil {
		t.Fatal(err)
	}
	out, _ := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), nil, items())
	if got := ids(out); !slices.Equal(got, []string{"p1", "p3", "p4"}) {
		t.Errorf("Process() = %v", got)
	}

	if _, err := NewExprFilter("item.revenue >", false); !core.IsInvalidInput(err) {
		t.Errorf("NewExprFilter(bad) error = %v, want INVALID_INPUT", err)
	}
}

func TestProductFilter(t *testing.T) {
	missing := core.NewItem("missing")
	missing.Features["revenue"] = 3
	in := []*core.Item{
		core.NewProductItem("ok", core.Product{Revenue: 1, Probability: 0.5}),
		core.NewProductItem("neg", core.Product{Revenue: -1, Probability: 0.5}),
		core.NewProductItem("nan", core.Product{Revenue: 1, Probability: math.NaN()}),
		core.NewProductItem("big", core.Product{Revenue: 1, Probability: 1.2}),
		missing,
	}
	out, _ := (&FilterNode{Filters: []Filter{&ProductFilter{}}}).Process(context.Background(), nil, in)
	if got := ids(out); !slices.Equal(got, []string{"ok"}) {
		t.Errorf("Process() = %v, want [ok]", got)
	}
}

func TestBloomFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	writer := NewBloomFilter(s, "bloom:delisted", 1000, 0.0001)
	if err := writer.Add(ctx, 0, "p2", "p4"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reader := NewBloomFilter(s, "bloom:delisted", 1000, 0.0001)
	out, err := (&FilterNode{Filters: []Filter{reader}}).Process(ctx, nil, items())
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !slices.Equal(got, []string{"p1", "p3"}) {
		t.Errorf("Process() = %v, want [p1 p3]", got)
	}

	empty := NewBloomFilter(s, "bloom:none", 1000, 0.0001)
	if drop, err := empty.ShouldFilter(ctx, nil, items()[0]); drop || err != nil {
		t.Errorf("missing key: ShouldFilter() = (%v, %v), want (false, nil)", drop, err)
	}

	inline := NewBloomFilter(nil, "", 0, 0, "p1")
	if drop, _ := inline.ShouldFilter(ctx, nil, items()[0]); !drop {
		t.Error("inline ids: p1 should be filtered")
	}
}
