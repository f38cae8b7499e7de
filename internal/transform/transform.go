// Package transform shapes extracted rows into warehouse rows: joins across
// extracts, derived columns, and projection onto the target table.
package transform

import (
	"fmt"

	"csvwarehouse/internal/records"
)

// JoinKind selects inner or left outer semantics.
type JoinKind string

const (
	Inner JoinKind = "inner"
	Left  JoinKind = "left"
)

// KeyPair equates a column of the rows built so far with a column of the
// joined source.
type KeyPair struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Join enriches rows with a second extract.
type Join struct {
	Source string    `yaml:"source"`
	Kind   JoinKind  `yaml:"kind"`
	On     []KeyPair `yaml:"on"`
	// Columns limits what is taken from the joined source; empty takes all.
	Columns []string `yaml:"columns,omitempty"`
}

// Transformer is an ordered recipe: start from Base, apply Joins, then
// Derives, then project onto Columns.
type Transformer struct {
	Base    string
	Joins   []Join
	Derives []Derive
	Columns []string
}

// Apply runs the recipe over the named extracts. Inputs are never mutated.
func (t Transformer) Apply(sets map[string][]records.Record) ([]records.Record, error) {
	rows, ok := sets[t.Base]
	if !ok {
		return nil, fmt.Errorf("transform: base source %q not loaded", t.Base)
	}
	for _, j := range t.Joins {
		right, ok := sets[j.Source]
		if !ok {
			return nil, fmt.Errorf("transform: join source %q not loaded", j.Source)
		}
		var err error
		if rows, err = j.apply(rows, right); err != nil {
			return nil, err
		}
	}
	if len(t.Derives) > 0 {
		out := make([]records.Record, len(rows))
		for i, r := range rows {
			nr := r.Clone()
			for _, d := range t.Derives {
				v, err := d.eval(nr)
				if err != nil {
					return nil, fmt.Errorf("transform: row %d: %w", i+1, err)
				}
				nr[d.Name] = v
			}
			out[i] = nr
		}
		rows = out
	}
	if len(t.Columns) == 0 {
		return rows, nil
	}
	out := make([]records.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Project(t.Columns)
	}
	return out, nil
}

func (j Join) apply(left, right []records.Record) ([]records.Record, error) {
	if len(j.On) == 0 {
		return nil, fmt.Errorf("transform: join %s has no key columns", j.Source)
	}
	lcols := make([]string, len(j.On))
	rcols := make([]string, len(j.On))
	for i, p := range j.On {
		lcols[i], rcols[i] = p.Left, p.Right
	}

	index := make(map[uint64][]records.Record, len(right))
	for _, r := range right {
		if hasNil(r, rcols) {
			continue
		}
		fp := records.Fingerprint(r, rcols)
		index[fp] = append(index[fp], r)
	}

	take := j.Columns
	if len(take) == 0 && len(right) > 0 {
		take = columnsOf(right)
	}

	out := make([]records.Record, 0, len(left))
	for _, l := range left {
		var matches []records.Record
		if !hasNil(l, lcols) {
			for _, r := range index[records.Fingerprint(l, lcols)] {
				if sameKey(l, lcols, r, rcols) {
					matches = append(matches, r)
				}
			}
		}
		switch {
		case len(matches) > 0:
			for _, r := range matches {
				out = append(out, merge(l, r, take))
			}
		case j.Kind == Left:
			out = append(out, merge(l, nil, take))
		case j.Kind == Inner || j.Kind == "":
			// dropped
		default:
			return nil, fmt.Errorf("transform: unknown join kind %q", j.Kind)
		}
	}
	return out, nil
}

// merge copies base values and adds joined ones; base wins on collisions.
// A nil right record pads the joined columns with nil.
func merge(l, r records.Record, take []string) records.Record {
	out := l.Clone()
	for _, c := range take {
		if _, exists := out[c]; exists {
			continue
		}
		if r == nil {
			out[c] = nil
			continue
		}
		out[c] = r[c]
	}
	return out
}

func hasNil(r records.Record, cols []string) bool {
	for _, c := range cols {
		if r[c] == nil {
			return true
		}
	}
	return false
}

func sameKey(l records.Record, lcols []string, r records.Record, rcols []string) bool {
	for i := range lcols {
		if records.Format(l[lcols[i]]) != records.Format(r[rcols[i]]) {
			return false
		}
	}
	return true
}

// columnsOf returns the union of keys across rs in first-seen order.
func columnsOf(rs []records.Record) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range rs {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out
}
