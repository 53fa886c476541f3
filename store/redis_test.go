package store

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/rushteam/revrank/core"
)

// 需要本地 Redis：REVRANK_TEST_REDIS=127.0.0.1:6379 go test ./store/...
func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REVRANK_TEST_REDIS")
	if addr == "" {
		t.Skip("REVRANK_TEST_REDIS not set")
	}
	s, err := NewRedisStore(addr, 15)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisCatalogRepository(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()
	repo := NewCatalogRepository(s, "revrank-test")

	catalog := testCatalog()
	if err := repo.SaveCatalog(ctx, "q", catalog); err != nil {
		t.Fatal(err)
	}
	got, err := repo.LoadCatalog(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, catalog) {
		t.Errorf("LoadCatalog() = %v", got)
	}

	if _, err := s.Get(ctx, "revrank-test:missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) error = %v", err)
	}
}
