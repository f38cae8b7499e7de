package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

// ColumnType is the logical type of a warehouse column.
type ColumnType string

const (
	TypeInt      ColumnType = "int"
	TypeFloat    ColumnType = "float"
	TypeDecimal  ColumnType = "decimal"
	TypeString   ColumnType = "string"
	TypeDateTime ColumnType = "datetime"
)

// Column describes one business column of a target table.
type Column struct {
	Name string     `yaml:"name"`
	Type ColumnType `yaml:"type"`

	// Size is the max length for string columns (0 = dialect default) and
	// the precision for decimal columns (0 = 18).
	Size int `yaml:"size,omitempty"`

	// Scale applies to decimal columns (0 = 4 when Size is also 0).
	Scale int `yaml:"scale,omitempty"`

	// SQLType overrides the dialect's type mapping verbatim, e.g. "datetime"
	// or "nvarchar(200)".
	SQLType string `yaml:"sql_type,omitempty"`
}

// Table is the typed descriptor every statement template is built from.
// All declared columns are business columns; surrogate row identity never
// appears here.
type Table struct {
	Schema          string   `yaml:"schema,omitempty"`
	Name            string   `yaml:"name"`
	Columns         []Column `yaml:"columns"`
	KeyColumns      []string `yaml:"key_columns,omitempty"`
	TimestampColumn string   `yaml:"timestamp_column"`
}

var (
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	sqlTypeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\(\s*(\d+|max|MAX)\s*(,\s*\d+\s*)?\))?$`)
)

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// String returns schema.name (or name when no schema is set).
func (t Table) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Validate checks identifiers and cross references. Every identifier that
// reaches SQL text passes through here first.
func (t Table) Validate() error {
	if !identRe.MatchString(t.Name) {
		return fmt.Errorf("table name %q is not a plain identifier", t.Name)
	}
	if t.Schema != "" && !identRe.MatchString(t.Schema) {
		return fmt.Errorf("table %s: schema %q is not a plain identifier", t.Name, t.Schema)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if !identRe.MatchString(c.Name) {
			return fmt.Errorf("table %s: column %q is not a plain identifier", t.Name, c.Name)
		}
		k := strings.ToLower(c.Name)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("table %s: duplicate column %q", t.Name, c.Name)
		}
		seen[k] = struct{}{}
		switch c.Type {
		case TypeInt, TypeFloat, TypeDecimal, TypeString, TypeDateTime:
		default:
			return fmt.Errorf("table %s: column %s: unknown type %q", t.Name, c.Name, c.Type)
		}
		if c.SQLType != "" && !sqlTypeRe.MatchString(c.SQLType) {
			return fmt.Errorf("table %s: column %s: sql_type %q not allowed", t.Name, c.Name, c.SQLType)
		}
	}
	ts, ok := t.Column(t.TimestampColumn)
	if !ok {
		return fmt.Errorf("table %s: timestamp column %q not declared", t.Name, t.TimestampColumn)
	}
	if ts.Type != TypeDateTime {
		return fmt.Errorf("table %s: timestamp column %q must be datetime, got %s", t.Name, ts.Name, ts.Type)
	}
	for _, k := range t.KeyColumns {
		if _, ok := t.Column(k); !ok {
			return fmt.Errorf("table %s: key column %q not declared", t.Name, k)
		}
	}
	return nil
}
