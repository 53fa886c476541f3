package feast

import (
	"context"
	"fmt"

	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
	"github.com/rushteam/revrank/pkg/conv"
)

// ProductSource 从 Feast 在线特征读取商品目录。
//
//	src := &feast.ProductSource{
//	    Client:             client,
//	    EntityKey:          "product_id",
//	    RevenueFeature:     "product_stats:price",
//	    ProbabilityFeature: "product_stats:cvr",
//	}
//	catalog, missing, err := src.LoadCatalog(ctx, ids)
type ProductSource struct {
	Client Client

	// EntityKey 实体键名，默认 product_id
	EntityKey string

	RevenueFeature     string
	ProbabilityFeature string

	// Project 为空时使用客户端的默认项目
	Project string

	// BatchSize 单次请求的实体数，<= 0 表示一次请求全部
	BatchSize int
}

// LoadCatalog 批量读取商品属性。
// 任一特征缺失或不是数值的商品不进入目录，以 missing 返回；数值越界返回 INVALID_INPUT。
func (s *ProductSource) LoadCatalog(ctx context.Context, ids []string) (core.Catalog, []string, error) {
	if s.RevenueFeature == "" || s.ProbabilityFeature == "" {
		return nil, nil, core.InvalidInput(core.ModuleCatalog, "feast: revenue and probability features are required")
	}
	entityKey := s.EntityKey
	if entityKey == "" {
		entityKey = "product_id"
	}
	batch := s.BatchSize
	if batch <= 0 || batch > len(ids) {
		batch = len(ids)
	}

	catalog := make(core.Catalog, len(ids))
	var missing []string
	for start := 0; start < len(ids); start += batch {
		end := min(start+batch, len(ids))
		chunk := ids[start:end]

		rows := make([]map[string]interface{}, len(chunk))
		for i, id := range chunk {
			rows[i] = map[string]interface{}{entityKey: id}
		}
		resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
			Features:   []string{s.RevenueFeature, s.ProbabilityFeature},
			EntityRows: rows,
			Project:    s.Project,
		})
		if err != nil {
			return nil, nil, err
		}
		if len(resp.FeatureVectors) != len(chunk) {
			return nil, nil, fmt.Errorf("feast: expected %d feature vectors, got %d", len(chunk), len(resp.FeatureVectors))
		}

		for i, fv := range resp.FeatureVectors {
			id := chunk[i]
			r, ok1 := conv.ToFloat64(fv.Values[s.RevenueFeature])
			p, ok2 := conv.ToFloat64(fv.Values[s.ProbabilityFeature])
			if !ok1 || !ok2 {
				missing = append(missing, id)
				continue
			}
			catalog[id] = core.Product{Revenue: r, Probability: p}
		}
	}

	if err := cascade.ValidateCatalog(catalog); err != nil {
		return nil, nil, err
	}
	return catalog, missing, nil
}

// LoadItems 读取商品并转换为 Pipeline item，特征名使用默认的 revenue / probability。
func (s *ProductSource) LoadItems(ctx context.Context, ids []string) ([]*core.Item, error) {
	catalog, _, err := s.LoadCatalog(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]*core.Item, 0, len(catalog))
	for _, id := range ids {
		if p, ok := catalog[id]; ok {
			items = append(items, core.NewProductItem(id, p))
		}
	}
	return items, nil
}
