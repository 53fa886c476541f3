// Package cascade 实现级联（cascade）顾客模型下的收益最大化排序。
//
// 级联模型：顾客按顺序浏览商品，遇到第一个接受的商品即购买并离开。
// 设 p_i 为看到商品 i 后购买的条件概率，则依次展示 {1, 2, 3, ...} 时的实际购买概率为
//
//	p_1, (1-p_1)·p_2, (1-p_1)(1-p_2)·p_3, ...
//
// 注意力跨度：每位顾客最多浏览 X 个商品后离开，X 可以固定也可以服从某个分布。
//
// 主要能力：
//   - OptimalRankings: 固定注意力问题的动态规划，一次求出 k = 1..capacity 的最优排序
//   - BestX: 用固定注意力解作为随机注意力下的收益下界，选出下界最大的 x
//   - BestXFullCapacity / BestXSegments: 反复调用 BestX，把排序补满到展示位上限
//   - ExpectedRevenue: 任意排序在给定注意力分布下的期望收益
//   - RankBatch: 并发处理多个互不相关的目录（例如每个搜索词一个目录）
//
// 参考：Ningyuan Chen, Anran Li, Shuoguang Yang. 2021. Revenue Maximization and
// Learning in Products Ranking. EC '21. https://arxiv.org/abs/2012.03800
package cascade
