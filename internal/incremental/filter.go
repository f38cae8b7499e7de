// Package incremental selects the rows of an extract that are newer than the
// warehouse watermark.
package incremental

import (
	"time"

	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/records"
)

// Kind distinguishes "nothing to load" from a batch of new rows.
type Kind int

const (
	Empty Kind = iota
	New
)

func (k Kind) String() string {
	if k == New {
		return "new"
	}
	return "empty"
}

// Result is the filter outcome. Rows is nil when Kind is Empty.
type Result struct {
	Kind Kind
	Rows []records.Record
}

// Check returns a *etlerr.DataError for the first row whose column value is
// missing or not a datetime; keys names the natural key used in that error.
func Check(rows []records.Record, column string, keys []string) error {
	for i, r := range rows {
		if _, ok := r[column].(time.Time); !ok {
			return &etlerr.DataError{Column: column, Row: i + 1, Key: r.KeyString(keys), Value: r[column]}
		}
	}
	return nil
}

// Filter keeps rows whose column value is strictly after watermark,
// preserving input order. A missing or non-datetime value anywhere in the
// batch rejects the whole batch (see Check).
func Filter(rows []records.Record, column string, keys []string, watermark time.Time) (Result, error) {
	if err := Check(rows, column, keys); err != nil {
		return Result{}, err
	}
	var out []records.Record
	for _, r := range rows {
		if r[column].(time.Time).After(watermark) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return Result{Kind: Empty}, nil
	}
	return Result{Kind: New, Rows: out}, nil
}
