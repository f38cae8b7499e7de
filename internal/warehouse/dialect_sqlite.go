package warehouse

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SQLiteTimeLayout is the fixed-width UTC text form datetimes are stored in,
// so that MAX() over the column is chronological.
const SQLiteTimeLayout = "2006-01-02 15:04:05.000000000"

// sqliteDialect ignores Table.Schema: everything lives in "main".
type sqliteDialect struct{}

func init() { RegisterDialect(sqliteDialect{}, "sqlite3") }

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) TableExistsSQL(t Table) (string, []any) {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", []any{t.Name}
}

func (sqliteDialect) ColumnsSQL(t Table) (string, []any) {
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{t.Name}
}

func (d sqliteDialect) CreateTableSQL(t Table) string {
	t.Schema = ""
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QualifiedName(d, t), columnDefs(d, t))
}

func (d sqliteDialect) InsertSQL(t Table) string {
	t.Schema = ""
	return insertSQL(d, t)
}

func (d sqliteDialect) MaxSQL(t Table, column string) string {
	return fmt.Sprintf("SELECT MAX(%s) FROM %s", d.Quote(column), d.Quote(t.Name))
}

func (d sqliteDialect) CountSQL(t Table) string {
	return "SELECT COUNT(*) FROM " + d.Quote(t.Name)
}

func (d sqliteDialect) DedupSQL(t Table) []string {
	name := d.Quote(t.Name)
	return []string{fmt.Sprintf(`DELETE FROM %s WHERE rowid IN (
  SELECT row_ref FROM (
    SELECT rowid AS row_ref, ROW_NUMBER() OVER (PARTITION BY %s) AS rn FROM %s
  ) ranked WHERE ranked.rn > 1
)`, name, quotedList(d, t.ColumnNames()), name)}
}

func (sqliteDialect) ColumnType(c Column) string {
	if c.SQLType != "" {
		return c.SQLType
	}
	switch c.Type {
	case TypeInt:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	case TypeDecimal:
		return "NUMERIC"
	default:
		// datetimes are TEXT in SQLiteTimeLayout
		return "TEXT"
	}
}

func (sqliteDialect) BindValue(_ Column, v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(SQLiteTimeLayout)
	case decimal.Decimal:
		return x.String()
	default:
		return v
	}
}
