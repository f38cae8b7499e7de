package config

import (
	"fmt"
	"sort"
	"strings"

	"csvwarehouse/internal/extract"
	"csvwarehouse/internal/transform"
	"csvwarehouse/internal/warehouse"
)

// IssueSeverity grades a finding.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path is dotted into the job document,
// e.g. "tables[0].sources.details.encoding".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate lints a job without touching files or the warehouse.
func Validate(j Job) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(j.Name) == "" {
		add(SeverityWarning, "name", "job name is empty; metrics and logs will use %q", "csvwarehouse")
	}
	if len(j.Tables) == 0 {
		add(SeverityError, "tables", "at least one table is required")
	}
	seen := map[string]int{}
	for i, tj := range j.Tables {
		p := fmt.Sprintf("tables[%d]", i)
		key := strings.ToLower(tj.Table.String())
		if prev, dup := seen[key]; dup {
			add(SeverityError, p+".table", "table %s already loaded by tables[%d]", tj.Table, prev)
		}
		seen[key] = i
		issues = append(issues, validateTable(p, tj)...)
	}
	return issues
}

func validateTable(p string, tj TableJob) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if err := tj.Table.Validate(); err != nil {
		add(SeverityError, p+".table", "%v", err)
	}
	if len(tj.Sources) == 0 {
		add(SeverityError, p+".sources", "at least one source is required")
		return issues
	}

	// produced[c] = type of column c when known, "" when only known by name
	produced := map[string]warehouse.ColumnType{}
	opaque := false
	for _, name := range sortedKeys(tj.Sources) {
		sp := tj.Sources[name]
		sp0 := p + ".sources." + name
		if sp.Encoding != "" && !extract.KnownEncoding(sp.Encoding) {
			add(SeverityError, sp0+".encoding", "unsupported encoding %q", sp.Encoding)
		}
		if len([]rune(sp.Delimiter)) > 1 && sp.Delimiter != `\t` && sp.Delimiter != "tab" {
			add(SeverityError, sp0+".delimiter", "delimiter must be a single character, got %q", sp.Delimiter)
		}
		if sp.HasHeader != nil && !*sp.HasHeader && len(sp.Columns) == 0 {
			add(SeverityError, sp0+".columns", "a headerless source must declare its columns")
		}
		if len(sp.Columns) == 0 {
			opaque = true
		}
		for k, c := range sp.Columns {
			cp := fmt.Sprintf("%s.columns[%d]", sp0, k)
			switch c.Type {
			case warehouse.TypeInt, warehouse.TypeFloat, warehouse.TypeDecimal, warehouse.TypeString, warehouse.TypeDateTime:
			default:
				add(SeverityError, cp+".type", "unknown type %q", c.Type)
			}
			if c.Name == "" {
				add(SeverityError, cp+".name", "column name is required")
			}
			if _, ok := produced[c.Name]; !ok {
				produced[c.Name] = c.Type
			}
		}
		if tj.Original[name] == "" {
			add(SeverityError, p+".original."+name, "original extract path is required")
		}
	}

	if tj.Transform == nil {
		if len(tj.Sources) > 1 {
			add(SeverityError, p+".transform", "multiple sources need a transform with a base and joins")
		}
	} else {
		tp := p + ".transform"
		if _, ok := tj.Sources[tj.Transform.Base]; !ok {
			add(SeverityError, tp+".base", "base %q is not a declared source", tj.Transform.Base)
		}
		for k, jn := range tj.Transform.Joins {
			jp := fmt.Sprintf("%s.joins[%d]", tp, k)
			if _, ok := tj.Sources[jn.Source]; !ok {
				add(SeverityError, jp+".source", "join source %q is not a declared source", jn.Source)
			}
			switch jn.Kind {
			case transform.Inner, transform.Left, "":
			default:
				add(SeverityError, jp+".kind", "join kind must be inner or left, got %q", jn.Kind)
			}
			if len(jn.On) == 0 {
				add(SeverityError, jp+".on", "join needs at least one key pair")
			}
		}
		for k, d := range tj.Transform.Derives {
			dp := fmt.Sprintf("%s.derives[%d]", tp, k)
			switch d.Op {
			case transform.Multiply, transform.Add, transform.Concat:
			default:
				add(SeverityError, dp+".op", "unknown op %q", d.Op)
			}
			if len(d.Inputs) == 0 {
				add(SeverityError, dp+".inputs", "derive needs inputs")
			}
			produced[d.Name] = ""
		}
	}

	if !opaque {
		ts := tj.Table.TimestampColumn
		if typ, ok := produced[ts]; !ok {
			add(SeverityError, p+".table.timestamp_column", "no source or derive produces %q", ts)
		} else if typ != "" && typ != warehouse.TypeDateTime {
			add(SeverityError, p+".table.timestamp_column", "%q is read as %s; it must be datetime", ts, typ)
		}
		for _, c := range tj.Table.Columns {
			if _, ok := produced[c.Name]; !ok && c.Name != ts {
				add(SeverityWarning, p+".table.columns", "no source or derive produces %q; it will load as NULL", c.Name)
			}
		}
	}

	if len(tj.Incremental) == 0 {
		add(SeverityWarning, p+".incremental", "no incremental extracts; only the original load runs")
	}
	for k, e := range tj.Incremental {
		for name := range e {
			if _, ok := tj.Sources[name]; !ok {
				add(SeverityError, fmt.Sprintf("%s.incremental[%d].%s", p, k, name), "not a declared source")
			}
		}
	}
	return issues
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
