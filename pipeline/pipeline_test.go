package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rushteam/revrank/core"
)

// reverseNode 反转 items 顺序
type reverseNode struct{}

func (reverseNode) Name() string { return "test.reverse" }
func (reverseNode) Kind() Kind { return KindReRank }
func (reverseNode) Process(_ context.Context, _ *core.RankContext, items []*core.Item) ([]*core.Item, error) {
	out := slices.Clone(items)
	slices.Reverse(out)
	return out, nil
}

type failNode struct{ err error }

func (failNode) Name() string { return "test.fail" }
func (failNode) Kind() Kind { return KindFilter }
func (n failNode) Process(context.Context, *core.RankContext, []*core.Item) ([]*core.Item, error) {
	return nil, n.err
}

func testItems(ids ...string) []*core.Item {
	out := make([]*core.Item, len(ids))
	for i, id := range ids {
		out[i] = core.NewItem(id)
	}
	return out
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPipelineRun(t *testing.T) {
	p := &Pipeline{Nodes: []Node{reverseNode{}, reverseNode{}, reverseNode{}}}
	rctx := &core.RankContext{}
	out, err := p.Run(context.Background(), rctx, testItems("a", "b", "c"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := itemIDs(out); !slices.Equal(got, []string{"c", "b", "a"}) {
		t.Errorf("Run() = %v", got)
	}
	if rctx.RequestID == "" {
		t.Error("RequestID was not generated")
	}

	rctx = &core.RankContext{RequestID: "fixed"}
	if _, err := p.Run(context.Background(), rctx, nil); err != nil {
		t.Fatal(err)
	}
	if rctx.RequestID != "fixed" {
		t.Errorf("RequestID = %q, want fixed", rctx.RequestID)
	}
}

func TestPipelineRunErrors(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{reverseNode{}, failNode{err: boom}}}
	if _, err := p.Run(context.Background(), nil, testItems("a")); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want wrapped boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, nil, testItems("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("Run(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	jsonPath := filepath.Join(dir, "p.json")
	if err := os.WriteFile(yamlPath, []byte("pipeline:\n  name: y\n  nodes:\n    - type: test.reverse\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"j","nodes":[{"type":"test.reverse","config":{"n":1}}]}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	factory := NewNodeFactory()
	var gotConfig map[string]interface{}
	factory.Register("test.reverse", func(cfg map[string]interface{}) (Node, error) {
		gotConfig = cfg
		return reverseNode{}, nil
	})

	for _, path := range []string{yamlPath, jsonPath} {
		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile(%s) error = %v", path, err)
		}
		p, err := cfg.BuildPipeline(factory)
		if err != nil {
			t.Fatalf("BuildPipeline() error = %v", err)
		}
		if len(p.Nodes) != 1 {
			t.Errorf("%s: len(Nodes) = %d", path, len(p.Nodes))
		}
		if gotConfig == nil {
			t.Errorf("%s: builder received nil config", path)
		}
	}

	if _, err := LoadFromFile(filepath.Join(dir, "p.toml")); err == nil {
		t.Error("LoadFromFile(.toml) want error")
	}
	cfg := &Config{}
	cfg.Pipeline.Nodes = []NodeConfig{{Type: "unknown"}}
	if _, err := cfg.BuildPipeline(factory); err == nil {
		t.Error("BuildPipeline(unknown type) want error")
	}
}
