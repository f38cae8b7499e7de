package warehouse

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Dialect renders every statement the engine issues from a Table descriptor.
// Identifiers are validated by Table.Validate and quoted here; values are
// always bound through Placeholder.
type Dialect interface {
	// Name is the canonical driver name ("sqlserver", "postgres", ...).
	Name() string
	Quote(ident string) string
	// Placeholder returns the n-th (1-based) bind marker.
	Placeholder(n int) string

	// TableExistsSQL returns a COUNT(*) catalog query and its arguments.
	TableExistsSQL(t Table) (string, []any)
	// ColumnsSQL lists the table's existing column names.
	ColumnsSQL(t Table) (string, []any)
	CreateTableSQL(t Table) string
	InsertSQL(t Table) string
	MaxSQL(t Table, column string) string
	CountSQL(t Table) string
	// DedupSQL returns the statements, run in order inside one transaction,
	// that keep exactly one row per distinct business-column tuple.
	DedupSQL(t Table) []string

	ColumnType(c Column) string
	// BindValue converts a record value into what the driver stores.
	BindValue(c Column, v any) any
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
	aliases    = map[string]string{}
)

// RegisterDialect makes d available under its Name and any aliases.
func RegisterDialect(d Dialect, alias ...string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name()] = d
	for _, a := range alias {
		aliases[a] = d.Name()
	}
}

// LookupDialect resolves a driver name or alias.
func LookupDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	n := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := aliases[n]; ok {
		n = canon
	}
	if d, ok := dialects[n]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown warehouse driver %q (known: %s)", name, strings.Join(dialectNames(), ", "))
}

func dialectNames() []string {
	out := make([]string, 0, len(dialects))
	for n := range dialects {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// QualifiedName renders schema.table with both parts quoted.
func QualifiedName(d Dialect, t Table) string {
	if t.Schema == "" {
		return d.Quote(t.Name)
	}
	return d.Quote(t.Schema) + "." + d.Quote(t.Name)
}

func quotedList(d Dialect, cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = d.Quote(c)
	}
	return strings.Join(q, ", ")
}

func columnDefs(d Dialect, t Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = d.Quote(c.Name) + " " + d.ColumnType(c) + " NULL"
	}
	return strings.Join(defs, ",\n  ")
}

func insertSQL(d Dialect, t Table) string {
	cols := t.ColumnNames()
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QualifiedName(d, t), quotedList(d, cols), strings.Join(ph, ", "))
}

func decimalPrecision(c Column) (int, int) {
	if c.Size == 0 {
		return 18, 4
	}
	return c.Size, c.Scale
}
