package warehouse

import (
	"fmt"
	"strings"
)

type mysqlDialect struct{}

func init() { RegisterDialect(mysqlDialect{}, "mariadb") }

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) Placeholder(int) string { return "?" }

// Table.Schema names a database; empty means the connection's database.
func (mysqlDialect) TableExistsSQL(t Table) (string, []any) {
	if t.Schema == "" {
		return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", []any{t.Name}
	}
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", []any{t.Schema, t.Name}
}

func (mysqlDialect) ColumnsSQL(t Table) (string, []any) {
	if t.Schema == "" {
		return "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position", []any{t.Name}
	}
	return "SELECT column_name FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position", []any{t.Schema, t.Name}
}

func (d mysqlDialect) CreateTableSQL(t Table) string {
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QualifiedName(d, t), columnDefs(d, t))
}

func (d mysqlDialect) InsertSQL(t Table) string { return insertSQL(d, t) }

func (d mysqlDialect) MaxSQL(t Table, column string) string {
	return fmt.Sprintf("SELECT MAX(%s) FROM %s", d.Quote(column), QualifiedName(d, t))
}

func (d mysqlDialect) CountSQL(t Table) string {
	return "SELECT COUNT(*) FROM " + QualifiedName(d, t)
}

// DedupSQL has no physical row identity to target, so rank-1 rows are
// copied aside, the table is emptied and the survivors are put back.
func (d mysqlDialect) DedupSQL(t Table) []string {
	fqn := QualifiedName(d, t)
	tmp := d.Quote(t.Name + "_dedup")
	cols := quotedList(d, t.ColumnNames())
	return []string{
		"DROP TEMPORARY TABLE IF EXISTS " + tmp,
		fmt.Sprintf(`CREATE TEMPORARY TABLE %s AS
SELECT %s FROM (
  SELECT %s, ROW_NUMBER() OVER (PARTITION BY %s) AS rn FROM %s
) ranked WHERE ranked.rn = 1`, tmp, cols, cols, cols, fqn),
		"DELETE FROM " + fqn,
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", fqn, cols, cols, tmp),
		"DROP TEMPORARY TABLE " + tmp,
	}
}

func (mysqlDialect) ColumnType(c Column) string {
	if c.SQLType != "" {
		return c.SQLType
	}
	switch c.Type {
	case TypeInt:
		return "BIGINT"
	case TypeFloat:
		return "DOUBLE"
	case TypeDecimal:
		p, s := decimalPrecision(c)
		return fmt.Sprintf("DECIMAL(%d,%d)", p, s)
	case TypeDateTime:
		return "DATETIME(6)"
	default:
		if c.Size <= 0 || c.Size > 16383 {
			return "LONGTEXT"
		}
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	}
}

func (mysqlDialect) BindValue(_ Column, v any) any { return v }
