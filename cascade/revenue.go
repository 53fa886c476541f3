package cascade

import "github.com/rushteam/revrank/core"

// ExpectedRevenue 计算排序在级联模型与注意力分布 g 下的期望收益。
//
// 位置 i（从 1 开始）上的商品被购买，需要顾客注意力 >= i 且前 i-1 个商品都未被购买：
//
//	revenue += s · p_i · r_i · (g.SF(i) + g.PMF(i))
//	s       *= (1 - p_i)
//
// 位置是排序中的绝对位置。可以用来评估任意来源的排序。
func ExpectedRevenue(ranking core.Ranking, g core.AttentionDistribution) (float64, error) {
	if err := validateDistribution(g); err != nil {
		return 0, err
	}
	if err := ValidateRanking(ranking); err != nil {
		return 0, err
	}
	return expectedRevenue(ranking, g), nil
}

func expectedRevenue(ranking core.Ranking, g core.AttentionDistribution) float64 {
	notConverted := 1.0
	revenue := 0.0
	for i, rp := range ranking {
		prob := rp.Product.Probability
		// 显式转换阻止 FMA 融合
		revenue += float64(notConverted * prob * rp.Product.Revenue * core.AtLeast(g, i+1))
		notConverted *= 1 - prob
	}
	return revenue
}
