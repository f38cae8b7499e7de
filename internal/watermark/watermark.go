// Package watermark derives the incremental cursor of a target table.
package watermark

import (
	"context"
	"fmt"
	"time"

	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/warehouse"
)

// Sentinel is the watermark of an empty table.
var Sentinel = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Resolve returns MAX(timestamp column) of t, or Sentinel when the table has
// no rows. A table that does not exist is a schema error, never a sentinel.
func Resolve(ctx context.Context, db warehouse.DB, d warehouse.Dialect, t warehouse.Table) (time.Time, error) {
	exists, err := warehouse.TableExists(ctx, db, d, t)
	if err != nil {
		return time.Time{}, err
	}
	if !exists {
		return time.Time{}, fmt.Errorf("%w: %w: %s", etlerr.ErrSchema, etlerr.ErrTableMissing, t)
	}
	v, err := warehouse.QueryScalar(ctx, db, d.MaxSQL(t, t.TimestampColumn))
	if err != nil {
		return time.Time{}, fmt.Errorf("watermark %s: %w", t, err)
	}
	if v == nil {
		return Sentinel, nil
	}
	ts, err := warehouse.ToTime(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("watermark %s: %w", t, err)
	}
	return ts, nil
}
