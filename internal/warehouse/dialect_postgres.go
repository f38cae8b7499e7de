package warehouse

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type postgresDialect struct{}

func init() { RegisterDialect(postgresDialect{}, "pgx", "postgresql") }

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) schema(t Table) string {
	if t.Schema == "" {
		return "public"
	}
	return t.Schema
}

func (d postgresDialect) TableExistsSQL(t Table) (string, []any) {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2",
		[]any{d.schema(t), t.Name}
}

func (d postgresDialect) ColumnsSQL(t Table) (string, []any) {
	return "SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position",
		[]any{d.schema(t), t.Name}
}

func (d postgresDialect) CreateTableSQL(t Table) string {
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QualifiedName(d, t), columnDefs(d, t))
}

func (d postgresDialect) InsertSQL(t Table) string { return insertSQL(d, t) }

func (d postgresDialect) MaxSQL(t Table, column string) string {
	return fmt.Sprintf("SELECT MAX(%s) FROM %s", d.Quote(column), QualifiedName(d, t))
}

func (d postgresDialect) CountSQL(t Table) string {
	return "SELECT COUNT(*) FROM " + QualifiedName(d, t)
}

func (d postgresDialect) DedupSQL(t Table) []string {
	fqn := QualifiedName(d, t)
	return []string{fmt.Sprintf(`DELETE FROM %s WHERE ctid IN (
  SELECT row_ref FROM (
    SELECT ctid AS row_ref, ROW_NUMBER() OVER (PARTITION BY %s) AS rn FROM %s
  ) ranked WHERE ranked.rn > 1
)`, fqn, quotedList(d, t.ColumnNames()), fqn)}
}

func (postgresDialect) ColumnType(c Column) string {
	if c.SQLType != "" {
		return c.SQLType
	}
	switch c.Type {
	case TypeInt:
		return "BIGINT"
	case TypeFloat:
		return "DOUBLE PRECISION"
	case TypeDecimal:
		p, s := decimalPrecision(c)
		return fmt.Sprintf("NUMERIC(%d,%d)", p, s)
	case TypeDateTime:
		return "TIMESTAMP"
	default:
		if c.Size <= 0 {
			return "TEXT"
		}
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	}
}

// BindValue sends decimals as text so the server parses them into NUMERIC
// without a float round trip.
func (postgresDialect) BindValue(_ Column, v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return v
}
