package filter

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/rushteam/revrank/core"
)

// BloomFilter 用布隆过滤器判断商品是否需要过滤，适合百万级的下架/违规商品集合。
// 存在误判：少量正常商品可能被过滤，但不会漏过集合中的商品。
//
// 过滤器序列化后保存在 Store 的单个 key 下，首次使用时加载并缓存在内存。
type BloomFilter struct {
	Store core.Store
	Key   string

	// Capacity / FalsePositiveRate 用于创建新的过滤器，需与写入方保持一致
	Capacity          uint
	FalsePositiveRate float64

	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// NewBloomFilter 创建过滤器；ids 非空时预先加入内存过滤器。
func NewBloomFilter(store core.Store, key string, capacity uint, fpRate float64, ids ...string) *BloomFilter {
	if capacity == 0 {
		capacity = 100000
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.001
	}
	f := &BloomFilter{Store: store, Key: key, Capacity: capacity, FalsePositiveRate: fpRate}
	if len(ids) > 0 {
		f.bf = bloom.NewWithEstimates(capacity, fpRate)
		for _, id := range ids {
			f.bf.AddString(id)
		}
	}
	return f
}

func (f *BloomFilter) Name() string {
	return "filter.bloom"
}

func (f *BloomFilter) ShouldFilter(ctx context.Context, _ *core.RankContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	bf, err := f.load(ctx)
	if err != nil {
		return false, err
	}
	if bf == nil {
		return false, nil
	}
	return bf.TestString(item.ID), nil
}

// Add 把商品加入过滤器并写回 Store（Store 为空时只更新内存）。
func (f *BloomFilter) Add(ctx context.Context, ttl int, ids ...string) error {
	bf, err := f.load(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if bf == nil {
		bf = bloom.NewWithEstimates(f.Capacity, f.FalsePositiveRate)
		f.bf = bf
	}
	for _, id := range ids {
		bf.AddString(id)
	}
	if f.Store == nil || f.Key == "" {
		return nil
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize bloom filter: %w", err)
	}
	return f.Store.Set(ctx, f.Key, buf.Bytes(), ttl)
}

// load 返回缓存的过滤器；Store 中不存在时返回 nil。
func (f *BloomFilter) load(ctx context.Context) (*bloom.BloomFilter, error) {
	f.mu.RLock()
	bf := f.bf
	f.mu.RUnlock()
	if bf != nil || f.Store == nil || f.Key == "" {
		return bf, nil
	}

	data, err := f.Store.Get(ctx, f.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	bf = &bloom.BloomFilter{}
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to deserialize bloom filter: %w", err)
	}

	f.mu.Lock()
	if f.bf == nil {
		f.bf = bf
	}
	bf = f.bf
	f.mu.Unlock()
	return bf, nil
}
