package table

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rushteam/revrank/core"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenSQLite 打开 SQLite 数据库（纯 Go 驱动，无需 cgo）。path 可以是 ":memory:"。
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return db, nil
}

func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", core.InvalidInput(core.ModuleTable, "invalid sql identifier %q", name)
	}
	return `"` + name + `"`, nil
}

// ReadSQLite 把整张 SQL 表读为 Table。NULL 读为空字符串。
func ReadSQLite(ctx context.Context, db *sql.DB, tableName string) (*Table, error) {
	qt, err := quoteIdent(tableName)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+qt)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t, err := New(columns...)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", tableName, err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatSQLValue(v)
		}
		t.rows = append(t.rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func formatSQLValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []byte:
		return string(val)
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// WriteRankSQLite 把排序写回 SQL 表的 rankColumn 列（列不存在时自动添加）。
// 先把整列置为 NULL，再按 keyColumn 更新排序中的行，在同一个事务内完成。
func WriteRankSQLite(ctx context.Context, db *sql.DB, tableName, keyColumn, rankColumn string, ranking core.Ranking) error {
	if keyColumn == "" {
		keyColumn = DefaultKeyColumn
	}
	if rankColumn == "" {
		rankColumn = DefaultRankColumn
	}
	qt, err := quoteIdent(tableName)
	if err != nil {
		return err
	}
	qk, err := quoteIdent(keyColumn)
	if err != nil {
		return err
	}
	qr, err := quoteIdent(rankColumn)
	if err != nil {
		return err
	}

	exists, err := sqliteHasColumn(ctx, db, tableName, rankColumn)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if !exists {
		if _, err := tx.ExecContext(ctx, "ALTER TABLE "+qt+" ADD COLUMN "+qr+" INTEGER"); err != nil {
			return fmt.Errorf("add column %s: %w", rankColumn, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "UPDATE "+qt+" SET "+qr+" = NULL"); err != nil {
		return fmt.Errorf("reset %s: %w", rankColumn, err)
	}

	stmt, err := tx.PrepareContext(ctx, "UPDATE "+qt+" SET "+qr+" = ? WHERE "+qk+" = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, rp := range ranking {
		res, err := stmt.ExecContext(ctx, i+1, rp.ID)
		if err != nil {
			return fmt.Errorf("update %q: %w", rp.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return core.InvalidInput(core.ModuleTable, "ranked key %q not found in %s.%s", rp.ID, tableName, keyColumn)
		}
	}
	return tx.Commit()
}

func sqliteHasColumn(ctx context.Context, db *sql.DB, tableName, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", tableName)
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", tableName, err)
	}
	defer rows.Close()
	found := false
	hasRows := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		hasRows = true
		if strings.EqualFold(name, column) {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	if !hasRows {
		return false, core.InvalidInput(core.ModuleTable, "sql table %q not found", tableName)
	}
	return found, nil
}
