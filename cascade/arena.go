package cascade

// emptyAssort 表示空组合。
const emptyAssort int32 = -1

// assortNode 是组合链表的一个节点：pos 为商品在排序后目录中的位置，
// next 指向剩余部分（位置更靠后的商品）。
type assortNode struct {
	pos  int32
	next int32
}

// assortArena 保存 DP 表中所有格子的组合。
// Assort[j,k] 包含商品 j 时等于 [j] + Assort[j+1,k-1]，只需新增一个节点并共享尾部，
// 不包含时直接复用 Assort[j+1,k] 的节点，整张表只占 O(n·capacity) 个节点。
type assortArena struct {
	nodes []assortNode
}

func newAssortArena(capHint int) *assortArena {
	return &assortArena{nodes: make([]assortNode, 0, capHint)}
}

// push 在 next 前面加上位置 pos，返回新节点。
func (a *assortArena) push(pos int, next int32) int32 {
	a.nodes = append(a.nodes, assortNode{pos: int32(pos), next: next})
	return int32(len(a.nodes) - 1)
}

// positions 从 head 向后遍历，返回组合中的商品位置。
// 节点总是指向位置更大的商品，所以结果已按位置升序（即按排序键降序）排列。
func (a *assortArena) positions(head int32) []int {
	var out []int
	for cur := head; cur != emptyAssort; cur = a.nodes[cur].next {
		out = append(out, int(a.nodes[cur].pos))
	}
	return out
}
