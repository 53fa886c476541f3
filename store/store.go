// Package store 提供 core.Store / core.KeyValueStore 的实现，以及基于它们的商品目录仓库。
//
// 注意：接口定义在 core 包。
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	repo := store.NewCatalogRepository(kv, "revrank")
package store

import "github.com/rushteam/revrank/core"

// ErrNotFound 是 core.ErrStoreNotFound 的别名。
var ErrNotFound = core.ErrStoreNotFound
