package watermark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/warehouse"
)

var table = warehouse.Table{
	Name: "master_list",
	Columns: []warehouse.Column{
		{Name: "Date", Type: warehouse.TypeDateTime},
		{Name: "Server", Type: warehouse.TypeString},
	},
	TimestampColumn: "Date",
}

func open(t *testing.T) (warehouse.DB, warehouse.Dialect) {
	t.Helper()
	ctx := context.Background()
	db, d, err := warehouse.Connect(ctx, warehouse.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })
	return db, d
}

func insert(t *testing.T, db warehouse.DB, d warehouse.Dialect, ts time.Time) {
	t.Helper()
	_, err := db.Exec(context.Background(), d.InsertSQL(table),
		d.BindValue(table.Columns[0], ts), "srv")
	require.NoError(t, err)
}

func TestResolveMissingTableIsSchemaError(t *testing.T) {
	db, d := open(t)
	_, err := Resolve(context.Background(), db, d, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, etlerr.ErrSchema))
	assert.True(t, errors.Is(err, etlerr.ErrTableMissing))
}

func TestResolveEmptyTableIsSentinel(t *testing.T) {
	db, d := open(t)
	_, err := db.Exec(context.Background(), d.CreateTableSQL(table))
	require.NoError(t, err)

	w, err := Resolve(context.Background(), db, d, table)
	require.NoError(t, err)
	assert.True(t, Sentinel.Equal(w))
	assert.Equal(t, 1900, w.Year())
}

func TestResolveReturnsTrueMax(t *testing.T) {
	db, d := open(t)
	_, err := db.Exec(context.Background(), d.CreateTableSQL(table))
	require.NoError(t, err)

	want := time.Date(2023, 1, 10, 8, 0, 0, 0, time.UTC)
	for _, ts := range []time.Time{
		time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		want,
		time.Date(2023, 1, 9, 23, 59, 59, 0, time.UTC),
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
	} {
		insert(t, db, d, ts)
	}
	w, err := Resolve(context.Background(), db, d, table)
	require.NoError(t, err)
	assert.True(t, want.Equal(w), "got %v", w)
}
