// Package table 把表格数据（CSV、SQLite 表）适配为商品目录，并把排序结果写回为一列。
//
// 每一行是一个商品：key 列为商品 ID，revenue / probability 列为商品属性。
// 排序结果写入 rank 列（从 1 开始），未进入排序的行该列为空。
package table

import (
	"sort"

	"github.com/rushteam/revrank/core"
)

// Columns 指定商品属性所在的列。空字段使用默认列名。
type Columns struct {
	Key         string `koanf:"key" yaml:"key"`
	Revenue     string `koanf:"revenue" yaml:"revenue"`
	Probability string `koanf:"probability" yaml:"probability"`
}

// 默认列名。
const (
	DefaultKeyColumn  = "id"
	DefaultRankColumn = "rank"
)

func (c Columns) withDefaults() Columns {
	if c.Key == "" {
		c.Key = DefaultKeyColumn
	}
	if c.Revenue == "" {
		c.Revenue = core.FeatureRevenue
	}
	if c.Probability == "" {
		c.Probability = core.FeatureProbability
	}
	return c
}

// Table 是按行存储的二维表，单元格统一为字符串。
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New 创建只有表头的空表；列名重复或为空时返回错误。
func New(columns ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if c == "" {
			return nil, core.InvalidInput(core.ModuleTable, "empty column name")
		}
		if _, dup := t.index[c]; dup {
			return nil, core.InvalidInput(core.ModuleTable, "duplicate column %q", c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Columns 返回列名（副本）。
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len 返回行数。
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn 判断列是否存在。
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AddRow 追加一行，值的个数必须与列数一致。
func (t *Table) AddRow(values ...string) error {
	if len(values) != len(t.columns) {
		return core.InvalidInput(core.ModuleTable, "row has %d values, table has %d columns", len(values), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), values...))
	return nil
}

// Row 返回第 i 行（副本）。
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Value 返回第 row 行 col 列的值。
func (t *Table) Value(row int, col string) (string, bool) {
	j, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return "", false
	}
	return t.rows[row][j], true
}

// Column 返回整列的值。
func (t *Table) Column(name string) ([]string, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, unknownColumn(name)
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// SetColumn 写入整列；列不存在时追加到末尾。
func (t *Table) SetColumn(name string, values []string) error {
	if name == "" {
		return core.InvalidInput(core.ModuleTable, "empty column name")
	}
	if len(values) != len(t.rows) {
		return core.InvalidInput(core.ModuleTable, "column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	j, ok := t.index[name]
	if !ok {
		j = len(t.columns)
		t.index[name] = j
		t.columns = append(t.columns, name)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}
	for i, v := range values {
		t.rows[i][j] = v
	}
	return nil
}

// Partition 按 groupColumn 的值把表拆成多个子表，返回子表以及排好序的分组值。
// 常用于一张表里包含多个搜索词的商品：每个搜索词单独排序。
func (t *Table) Partition(groupColumn string) (map[string]*Table, []string, error) {
	j, ok := t.index[groupColumn]
	if !ok {
		return nil, nil, unknownColumn(groupColumn)
	}
	groups := make(map[string]*Table)
	for _, row := range t.rows {
		g := row[j]
		sub, ok := groups[g]
		if !ok {
			sub = t.emptyCopy()
			groups[g] = sub
		}
		sub.rows = append(sub.rows, append([]string(nil), row...))
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return groups, keys, nil
}

func (t *Table) emptyCopy() *Table {
	index := make(map[string]int, len(t.index))
	for k, v := range t.index {
		index[k] = v
	}
	return &Table{columns: t.Columns(), index: index}
}

func unknownColumn(name string) error {
	return core.InvalidInput(core.ModuleTable, "unknown column %q", name)
}
