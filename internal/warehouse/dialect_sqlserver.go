package warehouse

import (
	"fmt"
	"strings"
)

type sqlServerDialect struct{}

func init() { RegisterDialect(sqlServerDialect{}, "mssql") }

func (sqlServerDialect) Name() string { return "sqlserver" }

func (sqlServerDialect) Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (sqlServerDialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

func (sqlServerDialect) schema(t Table) string {
	if t.Schema == "" {
		return "dbo"
	}
	return t.Schema
}

func (d sqlServerDialect) TableExistsSQL(t Table) (string, []any) {
	return "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2",
		[]any{d.schema(t), t.Name}
}

func (d sqlServerDialect) ColumnsSQL(t Table) (string, []any) {
	return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION",
		[]any{d.schema(t), t.Name}
}

func (d sqlServerDialect) qualified(t Table) string {
	return d.Quote(d.schema(t)) + "." + d.Quote(t.Name)
}

func (d sqlServerDialect) CreateTableSQL(t Table) string {
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.qualified(t), columnDefs(d, t))
}

func (d sqlServerDialect) InsertSQL(t Table) string {
	t.Schema = d.schema(t)
	return insertSQL(d, t)
}

func (d sqlServerDialect) MaxSQL(t Table, column string) string {
	return fmt.Sprintf("SELECT MAX(%s) FROM %s", d.Quote(column), d.qualified(t))
}

func (d sqlServerDialect) CountSQL(t Table) string {
	return "SELECT COUNT_BIG(*) FROM " + d.qualified(t)
}

func (d sqlServerDialect) DedupSQL(t Table) []string {
	return []string{fmt.Sprintf(`WITH ranked AS (
  SELECT ROW_NUMBER() OVER (PARTITION BY %s ORDER BY (SELECT NULL)) AS rn
  FROM %s
)
DELETE FROM ranked WHERE rn > 1`, quotedList(d, t.ColumnNames()), d.qualified(t))}
}

func (sqlServerDialect) ColumnType(c Column) string {
	if c.SQLType != "" {
		return c.SQLType
	}
	switch c.Type {
	case TypeInt:
		return "BIGINT"
	case TypeFloat:
		return "FLOAT"
	case TypeDecimal:
		p, s := decimalPrecision(c)
		return fmt.Sprintf("DECIMAL(%d,%d)", p, s)
	case TypeDateTime:
		return "DATETIME2"
	default:
		if c.Size <= 0 || c.Size > 4000 {
			return "NVARCHAR(MAX)"
		}
		return fmt.Sprintf("NVARCHAR(%d)", c.Size)
	}
}

func (sqlServerDialect) BindValue(_ Column, v any) any { return v }
