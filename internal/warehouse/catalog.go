package warehouse

import (
	"context"
	"fmt"
)

// TableExists checks the catalog for t.
func TableExists(ctx context.Context, db DB, d Dialect, t Table) (bool, error) {
	q, args := d.TableExistsSQL(t)
	v, err := QueryScalar(ctx, db, q, args...)
	if err != nil {
		return false, fmt.Errorf("catalog lookup %s: %w", t, err)
	}
	n, err := ToInt64(v)
	if err != nil {
		return false, fmt.Errorf("catalog lookup %s: %w", t, err)
	}
	return n > 0, nil
}

// ListColumns returns the column names t currently has.
func ListColumns(ctx context.Context, db DB, d Dialect, t Table) ([]string, error) {
	q, args := d.ColumnsSQL(t)
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list columns %s: %w", t, err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		switch v := r[0].(type) {
		case string:
			out = append(out, v)
		case []byte:
			out = append(out, string(v))
		default:
			return nil, fmt.Errorf("list columns %s: unexpected %T", t, v)
		}
	}
	return out, nil
}
