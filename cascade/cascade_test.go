package cascade

import (
	"math"
	"math/rand"
	"reflect"
	"slices"
	"strconv"
	"testing"

	"github.com/rushteam/revrank/attention"
	"github.com/rushteam/revrank/core"
)

// atLeastTable 是测试用的确定性分布：t[k] = P(X >= k)，下标越界为 0。
type atLeastTable []float64

func (t atLeastTable) SF(k int) float64 {
	if k >= 0 && k < len(t) {
		return t[k]
	}
	return 0
}

func (t atLeastTable) PMF(int) float64 { return 0 }

func product(r, p float64) core.Product {
	return core.Product{Revenue: r, Probability: p}
}

func ids(r core.Ranking) []string {
	return r.IDs()
}

func paperCatalog() core.Catalog {
	return core.Catalog{
		"a": product(1.0, 1.0),
		"b": product(9.0, 0.1),
		"c": product(1.9, 0.52),
	}
}

func sevenCatalog() core.Catalog {
	return core.Catalog{
		"p1": product(10, 0.05),
		"p2": product(8, 0.2),
		"p3": product(6, 0.3),
		"p4": product(5, 0.5),
		"p5": product(3, 0.6),
		"p6": product(2, 0.9),
		"p7": product(1, 1.0),
	}
}

func randomCatalog(rng *rand.Rand, n int) core.Catalog {
	c := make(core.Catalog, n)
	for i := 0; i < n; i++ {
		// 少量重复值，覆盖排序键相同的情况
		r := float64(rng.Intn(20)) / 2
		p := float64(rng.Intn(11)) / 10
		c["item"+strconv.Itoa(i)] = product(r, p)
	}
	return c
}

func TestOptimalRankings(t *testing.T) {
	catalog := paperCatalog()
	rankings, revenues, err := OptimalRankings(catalog, 2)
	if err != nil {
		t.Fatalf("OptimalRankings() error = %v", err)
	}
	for k, r := range rankings {
		if len(r) != k {
			t.Errorf("len(rankings[%d]) = %d, rankings must be of length equal to the attention", k, len(r))
		}
	}

	want1 := core.Ranking{{ID: "a", Product: catalog["a"]}}
	if !reflect.DeepEqual(rankings[1], want1) {
		t.Errorf("rankings[1] = %v, want %v", rankings[1], want1)
	}
	if revenues[1] != 1.0 {
		t.Errorf("revenues[1] = %v, want 1.0", revenues[1])
	}

	want2 := core.Ranking{{ID: "b", Product: catalog["b"]}, {ID: "a", Product: catalog["a"]}}
	if !reflect.DeepEqual(rankings[2], want2) {
		t.Errorf("rankings[2] = %v, want %v", rankings[2], want2)
	}
	if revenues[2] != 1.8 {
		t.Errorf("revenues[2] = %v, want 1.8", revenues[2])
	}
}

func TestOptimalRankingsAllAttentions(t *testing.T) {
	rankings, revenues, err := OptimalRankings(sevenCatalog(), 5)
	if err != nil {
		t.Fatalf("OptimalRankings() error = %v", err)
	}
	want := map[int][]string{
		1: {"p4"},
		2: {"p2", "p4"},
		3: {"p2", "p3", "p4"},
		4: {"p2", "p3", "p4", "p6"},
		5: {"p1", "p2", "p3", "p4", "p6"},
	}
	wantRevenue := map[int]float64{1: 2.5, 2: 3.6, 3: 4.44, 4: 4.944, 5: 5.1968}
	for k, w := range want {
		if got := ids(rankings[k]); !slices.Equal(got, w) {
			t.Errorf("rankings[%d] = %v, want %v", k, got, w)
		}
		if math.Abs(revenues[k]-wantRevenue[k]) > 1e-12 {
			t.Errorf("revenues[%d] = %v, want %v", k, revenues[k], wantRevenue[k])
		}
	}
}

func TestOptimalRankingsPreferInclusionOnTie(t *testing.T) {
	catalog := core.Catalog{"a": product(1, 1), "b": product(1, 1)}
	rankings, revenues, err := OptimalRankings(catalog, 2)
	if err != nil {
		t.Fatalf("OptimalRankings() error = %v", err)
	}
	// k=1 时包含 a 与不包含 a 收益相同，应包含 a
	if got := ids(rankings[1]); !slices.Equal(got, []string{"a"}) {
		t.Errorf("rankings[1] = %v, want [a]", got)
	}
	if got := ids(rankings[2]); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("rankings[2] = %v, want [a b]", got)
	}
	if revenues[1] != 1 || revenues[2] != 1 {
		t.Errorf("revenues = %v", revenues)
	}
}

func TestOptimalRankingsDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		catalog  core.Catalog
		capacity int
	}{
		{"zero capacity", paperCatalog(), 0},
		{"empty catalog", core.Catalog{}, 3},
		{"nil catalog", nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rankings, revenues, err := OptimalRankings(tt.catalog, tt.capacity)
			if err != nil {
				t.Fatalf("OptimalRankings() error = %v", err)
			}
			if len(rankings) != 0 || len(revenues) != 0 {
				t.Errorf("got %d rankings, %d revenues, want empty", len(rankings), len(revenues))
			}
		})
	}
}

func TestInvalidInput(t *testing.T) {
	g := atLeastTable{1, 1, 1}
	tests := []struct {
		name    string
		catalog core.Catalog
		run     func(core.Catalog) error
	}{
		{"negative capacity", paperCatalog(), func(c core.Catalog) error {
			_, _, err := OptimalRankings(c, -1)
			return err
		}},
		{"probability above one", core.Catalog{"x": product(1, 1.5)}, func(c core.Catalog) error {
			_, _, err := OptimalRankings(c, 1)
			return err
		}},
		{"negative probability", core.Catalog{"x": product(1, -0.1)}, func(c core.Catalog) error {
			_, err := BestXFullCapacity(c, g, 1)
			return err
		}},
		{"negative revenue", core.Catalog{"x": product(-1, 0.5)}, func(c core.Catalog) error {
			_, _, err := BestX(c, g, 1, 0)
			return err
		}},
		{"nan revenue", core.Catalog{"x": product(math.NaN(), 0.5)}, func(c core.Catalog) error {
			_, _, err := OptimalRankings(c, 1)
			return err
		}},
		{"nan probability", core.Catalog{"x": product(1, math.NaN())}, func(c core.Catalog) error {
			_, _, err := OptimalRankings(c, 1)
			return err
		}},
		{"negative offset", paperCatalog(), func(c core.Catalog) error {
			_, _, err := BestX(c, g, 1, -1)
			return err
		}},
		{"nil distribution", paperCatalog(), func(c core.Catalog) error {
			_, err := BestXFullCapacity(c, nil, 1)
			return err
		}},
		{"nil distribution revenue", paperCatalog(), func(c core.Catalog) error {
			_, err := ExpectedRevenue(c.Ranking(), nil)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(tt.catalog); !core.IsInvalidInput(err) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

// bruteForce 枚举所有不超过 k 个商品的子集（按排序键排列），返回最大收益。
func bruteForce(catalog core.Catalog, k int) float64 {
	sorted := sortCatalog(catalog)
	n := len(sorted)
	best := 0.0
	fixed := atLeastTable(slices.Repeat([]float64{1}, k+1))
	for mask := 0; mask < 1<<n; mask++ {
		var r core.Ranking
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				r = append(r, sorted[i])
			}
		}
		if len(r) > k {
			continue
		}
		best = math.Max(best, expectedRevenue(r, fixed))
	}
	return best
}

func TestOptimalRankingsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 40; trial++ {
		n := 1 + rng.Intn(8)
		capacity := 1 + rng.Intn(10)
		catalog := randomCatalog(rng, n)

		rankings, revenues, err := OptimalRankings(catalog, capacity)
		if err != nil {
			t.Fatalf("OptimalRankings() error = %v", err)
		}
		sorted := sortCatalog(catalog)
		maxK := min(n, capacity)
		if len(rankings) != maxK || len(revenues) != maxK {
			t.Fatalf("trial %d: got %d entries, want %d", trial, len(rankings), maxK)
		}
		for k := 1; k <= maxK; k++ {
			r := rankings[k]
			if len(r) != k {
				t.Errorf("trial %d: len(rankings[%d]) = %d", trial, k, len(r))
			}
			if k > 1 && revenues[k] < revenues[k-1] {
				t.Errorf("trial %d: revenues not non-decreasing at %d: %v < %v", trial, k, revenues[k], revenues[k-1])
			}
			if !slices.IsSortedFunc(r, compareLemma1) {
				t.Errorf("trial %d: rankings[%d] not sorted by (revenue, probability)", trial, k)
			}
			if !isSubsequence(r, sorted) {
				t.Errorf("trial %d: rankings[%d] is not a subsequence of the sorted catalog", trial, k)
			}
			fixed := atLeastTable(slices.Repeat([]float64{1}, k+1))
			if got := expectedRevenue(r, fixed); math.Abs(got-revenues[k]) > 1e-9 {
				t.Errorf("trial %d: revenue of rankings[%d] = %v, revenues[%d] = %v", trial, k, got, k, revenues[k])
			}
			if bf := bruteForce(catalog, k); math.Abs(bf-revenues[k]) > 1e-9 {
				t.Errorf("trial %d: revenues[%d] = %v, brute force = %v", trial, k, revenues[k], bf)
			}
		}
	}
}

func isSubsequence(r core.Ranking, sorted []core.RankedProduct) bool {
	i := 0
	for _, rp := range sorted {
		if i < len(r) && r[i] == rp {
			i++
		}
	}
	return i == len(r)
}

func TestExpectedRevenue(t *testing.T) {
	g, err := attention.NewUniform(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	ranking := core.Ranking{
		{ID: "A", Product: product(1.2, 0.1)},
		{ID: "B", Product: product(2.2, 0.01)},
		{ID: "C", Product: product(1.7, 0.05)},
	}
	want := 0.1*1.2 +
		(1-0.1)*0.01*2.2*2/3 +
		(1-0.1)*(1-0.01)*0.05*1.7/3
	got, err := ExpectedRevenue(ranking, g)
	if err != nil {
		t.Fatalf("ExpectedRevenue() error = %v", err)
	}
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("ExpectedRevenue() = %v, want %v", got, want)
	}

	if got, _ := ExpectedRevenue(nil, g); got != 0 {
		t.Errorf("ExpectedRevenue(empty) = %v, want 0", got)
	}

	single := core.Ranking{{ID: "x", Product: product(3, 0.4)}}
	if got, _ := ExpectedRevenue(single, g); math.Abs(got-1.2*core.AtLeast(g, 1)) > 1e-12 {
		t.Errorf("ExpectedRevenue(single) = %v", got)
	}

	if _, err := ExpectedRevenue(core.Ranking{{ID: "x", Product: product(1, 2)}}, g); !core.IsInvalidInput(err) {
		t.Errorf("ExpectedRevenue(invalid) error = %v, want INVALID_INPUT", err)
	}
}

func TestBestX(t *testing.T) {
	catalog := paperCatalog() // revenues[1] = 1.0, revenues[2] = 1.8
	tests := []struct {
		name    string
		g       core.AttentionDistribution
		offset  int
		wantX   int
		wantIDs []string
	}{
		{"larger x wins", atLeastTable{1, 0.9, 0.6}, 0, 2, []string{"b", "a"}},
		{"first maximum wins ties", atLeastTable{1, 0.9, 0.5}, 0, 1, []string{"a"}},
		{"offset shifts the distribution", atLeastTable{1, 1, 1, 0}, 1, 1, []string{"a"}},
		{"no positive lower bound", atLeastTable{1}, 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, ranking, err := BestX(catalog, tt.g, 2, tt.offset)
			if err != nil {
				t.Fatalf("BestX() error = %v", err)
			}
			if x != tt.wantX {
				t.Errorf("x = %d, want %d", x, tt.wantX)
			}
			if got := ids(ranking); !slices.Equal(got, tt.wantIDs) {
				t.Errorf("ranking = %v, want %v", got, tt.wantIDs)
			}
			if tt.wantX == 0 && ranking != nil {
				t.Errorf("ranking = %v, want nil sentinel", ranking)
			}
		})
	}
}

func TestBestXMatchesOptimalRankings(t *testing.T) {
	catalog := sevenCatalog()
	g, _ := attention.NewUniform(1, 8)
	x, ranking, err := BestX(catalog, g, 5, 0)
	if err != nil {
		t.Fatalf("BestX() error = %v", err)
	}
	rankings, _, _ := OptimalRankings(catalog, 5)
	if x == 0 || !reflect.DeepEqual(ranking, rankings[x]) {
		t.Errorf("BestX() = (%d, %v), want rankings[x] = %v", x, ranking, rankings[x])
	}
}

func TestBestXFullCapacity(t *testing.T) {
	u14, _ := attention.NewUniform(1, 4)
	u18, _ := attention.NewUniform(1, 8)
	geo, _ := attention.NewGeometric(0.3)
	tests := []struct {
		name        string
		g           core.AttentionDistribution
		wantIDs     []string
		wantXs      []int
		wantRevenue float64
	}{
		{"uniform 1..3", u14, []string{"p4", "p6", "p3"}, []int{1, 1, 1}, 3.13},
		{"uniform 1..7", u18, []string{"p2", "p3", "p4", "p5", "p6"}, []int{3, 2}, 4.208685714285715},
		{"geometric", geo, []string{"p2", "p4", "p3", "p6", "p5"}, []int{2, 2, 1}, 3.53777304},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Build(sevenCatalog(), tt.g, 5)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := ids(plan.Ranking); !slices.Equal(got, tt.wantIDs) {
				t.Errorf("ranking = %v, want %v", got, tt.wantIDs)
			}
			if got := plan.Xs(); !slices.Equal(got, tt.wantXs) {
				t.Errorf("xs = %v, want %v", got, tt.wantXs)
			}
			if math.Abs(plan.ExpectedRevenue-tt.wantRevenue) > 1e-9 {
				t.Errorf("expected revenue = %v, want %v", plan.ExpectedRevenue, tt.wantRevenue)
			}

			full, err := BestXFullCapacity(sevenCatalog(), tt.g, 5)
			if err != nil {
				t.Fatalf("BestXFullCapacity() error = %v", err)
			}
			if !reflect.DeepEqual(full, plan.Ranking) {
				t.Errorf("BestXFullCapacity() = %v, Build().Ranking = %v", full, plan.Ranking)
			}
		})
	}
}

// 每一段都应等于在剩余目录上以相同 offset 单独调用 BestX 的结果。
func TestBestXSegmentsAreIndependentBestX(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	dists := []core.AttentionDistribution{
		atLeastTable{1, 1, 0.8, 0.8, 0.5, 0.3, 0.3, 0.1},
		atLeastTable{1, 0.6, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
	}
	for trial := 0; trial < 30; trial++ {
		catalog := randomCatalog(rng, 1+rng.Intn(12))
		capacity := 1 + rng.Intn(10)
		g := dists[trial%len(dists)]

		segments, err := BestXSegments(catalog, g, capacity)
		if err != nil {
			t.Fatalf("BestXSegments() error = %v", err)
		}
		remaining := catalog.Clone()
		toRank := min(len(catalog), capacity)
		seen := make(map[string]bool)
		offset := 0
		for _, seg := range segments {
			if seg.Offset != offset {
				t.Fatalf("trial %d: segment offset = %d, want %d", trial, seg.Offset, offset)
			}
			x, ranking, err := BestX(remaining, g, toRank-offset, offset)
			if err != nil {
				t.Fatal(err)
			}
			if x != seg.X || !reflect.DeepEqual(ranking, seg.Ranking) {
				t.Fatalf("trial %d: segment (%d, %v), BestX = (%d, %v)", trial, seg.X, ids(seg.Ranking), x, ids(ranking))
			}
			for _, rp := range seg.Ranking {
				if seen[rp.ID] {
					t.Fatalf("trial %d: duplicate key %q", trial, rp.ID)
				}
				seen[rp.ID] = true
				delete(remaining, rp.ID)
			}
			offset += seg.X
		}
		if offset > toRank {
			t.Errorf("trial %d: ranked %d products, capacity %d", trial, offset, toRank)
		}
		if offset < toRank {
			// 提前结束时，剩余目录必须给不出正的下界
			if x, _, _ := BestX(remaining, g, toRank-offset, offset); x != 0 {
				t.Errorf("trial %d: stopped early but BestX still returns x = %d", trial, x)
			}
		}
	}
}

func TestBestXFullCapacityEarlyStop(t *testing.T) {
	// 注意力最多为 1：第二轮 P(X >= 2) = 0，没有正的下界
	ranking, err := BestXFullCapacity(sevenCatalog(), atLeastTable{1, 1}, 5)
	if err != nil {
		t.Fatalf("BestXFullCapacity() error = %v", err)
	}
	if got := ids(ranking); !slices.Equal(got, []string{"p4"}) {
		t.Errorf("ranking = %v, want [p4]", got)
	}

	ranking, err = BestXFullCapacity(sevenCatalog(), atLeastTable{1, 1}, 0)
	if err != nil || len(ranking) != 0 {
		t.Errorf("BestXFullCapacity(capacity 0) = (%v, %v), want empty", ranking, err)
	}
}

func TestDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	catalog := randomCatalog(rng, 40)
	g, _ := attention.NewGeometric(0.15)
	first, err := Build(catalog, g, 12)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Build(catalog.Clone(), g, 12)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, ids(first.Ranking), ids(again.Ranking))
		}
	}
}
