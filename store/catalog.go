package store

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
)

// CatalogRepository 在 KeyValueStore 上保存商品目录与排序结果。
//
// key 布局（name 通常为 场景:搜索词）：
//
//	{prefix}:catalog:{name}  哈希表，field 为商品 ID，value 为 Product JSON
//	{prefix}:plan:{name}     排序计划 JSON（cascade.Plan）
//	{prefix}:rank:{name}     有序集合，score 越大越靠前，用于快速取前 k 个商品
type CatalogRepository struct {
	store  core.KeyValueStore
	prefix string
}

func NewCatalogRepository(store core.KeyValueStore, prefix string) *CatalogRepository {
	if prefix == "" {
		prefix = "revrank"
	}
	return &CatalogRepository{store: store, prefix: prefix}
}

func (r *CatalogRepository) catalogKey(name string) string {
	return r.prefix + ":catalog:" + name
}

func (r *CatalogRepository) planKey(name string) string {
	return r.prefix + ":plan:" + name
}

func (r *CatalogRepository) rankKey(name string) string {
	return r.prefix + ":rank:" + name
}

// SaveCatalog 覆盖保存目录。
func (r *CatalogRepository) SaveCatalog(ctx context.Context, name string, catalog core.Catalog) error {
	key := r.catalogKey(name)
	if err := r.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear catalog %s: %w", name, err)
	}
	for _, id := range catalog.Keys() {
		data, err := json.Marshal(catalog[id])
		if err != nil {
			return fmt.Errorf("encode product %q: %w", id, err)
		}
		if err := r.store.HSet(ctx, key, id, data); err != nil {
			return fmt.Errorf("save product %q: %w", id, err)
		}
	}
	return nil
}

// LoadCatalog 读取目录；目录不存在或为空时返回 core.ErrStoreNotFound。
func (r *CatalogRepository) LoadCatalog(ctx context.Context, name string) (core.Catalog, error) {
	fields, err := r.store.HGetAll(ctx, r.catalogKey(name))
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", name, err)
	}
	if len(fields) == 0 {
		return nil, core.ErrStoreNotFound
	}

	catalog := make(core.Catalog, len(fields))
	for id, data := range fields {
		var p core.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, core.InvalidInput(core.ModuleStore, "product %q: %v", id, err)
		}
		catalog[id] = p
	}
	return catalog, nil
}

// PutProduct 新增或更新单个商品。
func (r *CatalogRepository) PutProduct(ctx context.Context, name, id string, p core.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.store.HSet(ctx, r.catalogKey(name), id, data)
}

// SavePlan 保存排序计划，并把排序写入有序集合。ttl 单位为秒，只作用于计划 JSON。
func (r *CatalogRepository) SavePlan(ctx context.Context, name string, plan *cascade.Plan, ttl ...int) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", name, err)
	}
	if err := r.store.Set(ctx, r.planKey(name), data, ttl...); err != nil {
		return fmt.Errorf("save plan %s: %w", name, err)
	}

	rankKey := r.rankKey(name)
	if err := r.store.Delete(ctx, rankKey); err != nil {
		return fmt.Errorf("clear ranking %s: %w", name, err)
	}
	n := len(plan.Ranking)
	for i, rp := range plan.Ranking {
		// 第一个展示位分数最高
		if err := r.store.ZAdd(ctx, rankKey, float64(n-i), rp.ID); err != nil {
			return fmt.Errorf("save ranking %s: %w", name, err)
		}
	}
	return nil
}

// LoadPlan 读取排序计划。
func (r *CatalogRepository) LoadPlan(ctx context.Context, name string) (*cascade.Plan, error) {
	data, err := r.store.Get(ctx, r.planKey(name))
	if err != nil {
		return nil, err
	}
	var plan cascade.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, core.InvalidInput(core.ModuleStore, "plan %s: %v", name, err)
	}
	return &plan, nil
}

// TopIDs 返回排序中前 k 个商品 ID；k <= 0 表示全部。
func (r *CatalogRepository) TopIDs(ctx context.Context, name string, k int) ([]string, error) {
	stop := int64(k) - 1
	if k <= 0 {
		stop = -1
	}
	return r.store.ZRange(ctx, r.rankKey(name), 0, stop)
}

// Rank 读取目录，执行 best-x 补满排序并保存结果。
func (r *CatalogRepository) Rank(ctx context.Context, name string, g core.AttentionDistribution, capacity int, ttl ...int) (*cascade.Plan, error) {
	catalog, err := r.LoadCatalog(ctx, name)
	if err != nil {
		return nil, err
	}
	plan, err := cascade.Build(catalog, g, capacity)
	if err != nil {
		return nil, err
	}
	if err := r.SavePlan(ctx, name, plan, ttl...); err != nil {
		return nil, err
	}
	return plan, nil
}
