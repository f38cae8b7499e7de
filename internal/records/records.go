// Package records defines the in-memory row shape shared by the extract,
// transform, filter, and load stages.
//
// A Record maps column name to a typed value. The extract reader produces
// int64, decimal.Decimal, string, time.Time, or nil (empty cell). Stages treat
// records as immutable: anything that changes a row builds a new map.
package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"
)

// Record is one logical business row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Project returns a new record holding exactly cols. Columns absent from r
// are set to nil.
func (r Record) Project(cols []string) Record {
	out := make(Record, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}

// Values returns the values of cols in order, suitable for bound parameters.
func (r Record) Values(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// KeyString renders the natural key as "col=value,col=value" for error
// messages and logs.
func (r Record) KeyString(keys []string) string {
	if len(keys) == 0 {
		return "<no key>"
	}
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(Format(r[k]))
	}
	return b.String()
}

// Format renders a typed value in a stable, type-aware textual form. It is the
// canonical form used for fingerprints, so two values compare equal exactly
// when their formatted forms are equal.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00"
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		return t.String()
	case int64:
		return fmt.Sprintf("%d", t)
	default:
		return fmt.Sprint(t)
	}
}

// Fingerprint hashes the values of cols with xxh3. A unit separator sits
// between fields so ("ab","c") and ("a","bc") never collide structurally.
func Fingerprint(r Record, cols []string) uint64 {
	h := xxh3.New()
	for i, c := range cols {
		if i > 0 {
			_, _ = h.Write([]byte{0x1f})
		}
		_, _ = h.WriteString(Format(r[c]))
	}
	return h.Sum64()
}

// CountDuplicates reports how many rows in rs repeat an earlier row across
// cols. It is informational only; the warehouse reconciler does the removal.
func CountDuplicates(rs []Record, cols []string) int {
	seen := make(map[uint64]struct{}, len(rs))
	dups := 0
	for _, r := range rs {
		fp := Fingerprint(r, cols)
		if _, ok := seen[fp]; ok {
			dups++
			continue
		}
		seen[fp] = struct{}{}
	}
	return dups
}
