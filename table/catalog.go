package table

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rushteam/revrank/cascade"
	"github.com/rushteam/revrank/core"
)

// LoadCatalog 把表转为商品目录。
// key 重复、列不存在、数值无法解析或越界都返回 INVALID_INPUT。
func LoadCatalog(t *Table, cols Columns) (core.Catalog, error) {
	cols = cols.withDefaults()
	keys, err := t.Column(cols.Key)
	if err != nil {
		return nil, err
	}
	revenues, err := t.Column(cols.Revenue)
	if err != nil {
		return nil, err
	}
	probabilities, err := t.Column(cols.Probability)
	if err != nil {
		return nil, err
	}

	catalog := make(core.Catalog, len(keys))
	for i, key := range keys {
		if _, dup := catalog[key]; dup {
			return nil, core.InvalidInput(core.ModuleTable, "row %d: duplicate key %q", i+1, key)
		}
		p, err := parseProduct(i, key, revenues[i], probabilities[i], cols)
		if err != nil {
			return nil, err
		}
		catalog[key] = p
	}
	if err := cascade.ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// parseProduct 解析第 i 行的商品属性，i 从 0 开始。
func parseProduct(i int, key, revenue, probability string, cols Columns) (core.Product, error) {
	r, err := parseFloat(revenue)
	if err != nil {
		return core.Product{}, core.InvalidInput(core.ModuleTable, "row %d (%s): column %q: %v", i+1, key, cols.Revenue, err)
	}
	p, err := parseFloat(probability)
	if err != nil {
		return core.Product{}, core.InvalidInput(core.ModuleTable, "row %d (%s): column %q: %v", i+1, key, cols.Probability, err)
	}
	return core.Product{Revenue: r, Probability: p}, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return f, nil
}

// RankColumn 根据排序生成 rank 列：第 i 个展示位为 i（从 1 开始），未进入排序的行为空。
// 排序中出现表里不存在的 key 时返回错误。
func RankColumn(t *Table, cols Columns, ranking core.Ranking) ([]string, error) {
	cols = cols.withDefaults()
	keys, err := t.Column(cols.Key)
	if err != nil {
		return nil, err
	}
	rowOf := make(map[string]int, len(keys))
	for i, k := range keys {
		rowOf[k] = i
	}

	out := make([]string, len(keys))
	for pos, rp := range ranking {
		i, ok := rowOf[rp.ID]
		if !ok {
			return nil, core.InvalidInput(core.ModuleTable, "ranked key %q not found in column %q", rp.ID, cols.Key)
		}
		out[i] = strconv.Itoa(pos + 1)
	}
	return out, nil
}

// SetRankColumn 计算 rank 列并写入表。rankColumn 为空时使用 "rank"。
func SetRankColumn(t *Table, cols Columns, rankColumn string, ranking core.Ranking) error {
	if rankColumn == "" {
		rankColumn = DefaultRankColumn
	}
	values, err := RankColumn(t, cols, ranking)
	if err != nil {
		return err
	}
	return t.SetColumn(rankColumn, values)
}

// SetGroupedRankColumn 按分组写入 rank 列，行顺序保持不变。
// rankings 以 groupColumn 的取值为键；groupColumn 为空时整张表只有一个分组，键为空串。
// 没有出现在对应分组排序中的行 rank 为空。
func SetGroupedRankColumn(t *Table, cols Columns, groupColumn, rankColumn string, rankings map[string]core.Ranking) error {
	cols = cols.withDefaults()
	if rankColumn == "" {
		rankColumn = DefaultRankColumn
	}
	keys, err := t.Column(cols.Key)
	if err != nil {
		return err
	}
	groups := make([]string, len(keys))
	if groupColumn != "" {
		if groups, err = t.Column(groupColumn); err != nil {
			return err
		}
	}

	type member struct{ group, key string }
	rowOf := make(map[member]int, len(keys))
	for i, k := range keys {
		rowOf[member{groups[i], k}] = i
	}
	values := make([]string, len(keys))
	for group, ranking := range rankings {
		for pos, rp := range ranking {
			i, ok := rowOf[member{group, rp.ID}]
			if !ok {
				return core.InvalidInput(core.ModuleTable, "ranked key %q not found in group %q", rp.ID, group)
			}
			values[i] = strconv.Itoa(pos + 1)
		}
	}
	return t.SetColumn(rankColumn, values)
}

// FullBestX 对整张表执行 best-x 补满排序。capacity < 1 表示展示位不受限（等于行数）。
func FullBestX(t *Table, cols Columns, g core.AttentionDistribution, capacity int) (*cascade.Plan, error) {
	catalog, err := LoadCatalog(t, cols)
	if err != nil {
		return nil, err
	}
	if capacity < 1 {
		capacity = len(catalog)
	}
	return cascade.Build(catalog, g, capacity)
}

// ExpectedRevenue 评估表中已有的排序：rank 列非空的行按 rank 升序组成排序。
// rank 必须是不重复的正整数；空值表示该行不展示。
func ExpectedRevenue(t *Table, cols Columns, rankColumn string, g core.AttentionDistribution) (float64, error) {
	ranking, err := RankingFromColumn(t, cols, rankColumn)
	if err != nil {
		return 0, err
	}
	return cascade.ExpectedRevenue(ranking, g)
}

// RankingFromColumn 按 rank 列还原排序。
// 只解析 rank 非空的行，未展示的行即使属性为空或非法也会被忽略。
func RankingFromColumn(t *Table, cols Columns, rankColumn string) (core.Ranking, error) {
	cols = cols.withDefaults()
	if rankColumn == "" {
		rankColumn = DefaultRankColumn
	}
	ranks, err := t.Column(rankColumn)
	if err != nil {
		return nil, err
	}
	keys, err := t.Column(cols.Key)
	if err != nil {
		return nil, err
	}
	revenues, err := t.Column(cols.Revenue)
	if err != nil {
		return nil, err
	}
	probabilities, err := t.Column(cols.Probability)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		rank int
		row  int
	}
	var rows []ranked
	seen := make(map[int]string)
	for i, s := range ranks {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || f < 1 {
			return nil, core.InvalidInput(core.ModuleTable, "row %d: rank must be a positive integer, got %q", i+1, s)
		}
		r := int(f)
		if other, dup := seen[r]; dup {
			return nil, core.InvalidInput(core.ModuleTable, "rank %d assigned to both %q and %q", r, other, keys[i])
		}
		seen[r] = keys[i]
		rows = append(rows, ranked{rank: r, row: i})
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].rank < rows[b].rank })

	ranking := make(core.Ranking, len(rows))
	for i, row := range rows {
		key := keys[row.row]
		p, err := parseProduct(row.row, key, revenues[row.row], probabilities[row.row], cols)
		if err != nil {
			return nil, err
		}
		ranking[i] = core.RankedProduct{ID: key, Product: p}
	}
	if err := cascade.ValidateRanking(ranking); err != nil {
		return nil, err
	}
	return ranking, nil
}
