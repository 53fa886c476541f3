package core

// AttentionDistribution 是顾客注意力跨度（最多愿意浏览的商品个数）的离散分布。
//
// 只需要两个能力：
//   - SF(k):  P(X > k)
//   - PMF(k): P(X == k)
//
// 因此 SF(k) + PMF(k) = P(X >= k)。k 为非负整数。
// 实现见 attention 包（均匀、几何、泊松、二项、固定值、经验分布）。
type AttentionDistribution interface {
	SF(k int) float64
	PMF(k int) float64
}

// AtLeast 返回 P(X >= k)。
func AtLeast(g AttentionDistribution, k int) float64 {
	return g.SF(k) + g.PMF(k)
}
