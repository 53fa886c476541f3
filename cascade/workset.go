package cascade

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/rushteam/revrank/core"
)

// workset 是自适应排序过程中的剩余目录。
// 目录只排序一次，已放置的商品用 bitset 标记删除；按位置顺序取出剩余商品即保持排序键顺序。
type workset struct {
	sorted  []core.RankedProduct
	removed *bitset.BitSet
}

func newWorkset(sorted []core.RankedProduct) *workset {
	return &workset{
		sorted:  sorted,
		removed: bitset.New(uint(len(sorted))),
	}
}

// Len 返回剩余商品数。
func (w *workset) Len() int {
	return len(w.sorted) - int(w.removed.Count())
}

// remaining 返回剩余商品（保持排序）以及它们在完整目录中的位置。
func (w *workset) remaining() ([]core.RankedProduct, []int) {
	n := w.Len()
	products := make([]core.RankedProduct, 0, n)
	index := make([]int, 0, n)
	for i := range w.sorted {
		if w.removed.Test(uint(i)) {
			continue
		}
		products = append(products, w.sorted[i])
		index = append(index, i)
	}
	return products, index
}

// remove 标记完整目录中位置 pos 的商品已放置。
func (w *workset) remove(pos int) {
	w.removed.Set(uint(pos))
}
