package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
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
		{Name: "Cost", Type: warehouse.TypeFloat},
	},
	TimestampColumn: "Date",
}

type row struct {
	day    int
	server string
	cost   any
}

func setup(t *testing.T, rows []row) (warehouse.DB, warehouse.Dialect) {
	t.Helper()
	ctx := context.Background()
	db, d, err := warehouse.Connect(ctx, warehouse.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })
	_, err = db.Exec(ctx, d.CreateTableSQL(table))
	require.NoError(t, err)
	for _, r := range rows {
		ts := time.Date(2023, 1, r.day, 0, 0, 0, 0, time.UTC)
		_, err := db.Exec(ctx, d.InsertSQL(table), d.BindValue(table.Columns[0], ts), r.server, r.cost)
		require.NoError(t, err)
	}
	return db, d
}

func tuples(t *testing.T, db warehouse.DB) map[string]int {
	t.Helper()
	rows, err := db.Query(context.Background(), `SELECT "Date", "Server", "Cost" FROM "master_list"`)
	require.NoError(t, err)
	out := map[string]int{}
	for _, r := range rows {
		out[fmtRow(r)]++
	}
	return out
}

func fmtRow(r []any) string {
	s := ""
	for _, v := range r {
		s += "|" + toString(v)
	}
	return s
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func TestReconcileCollapsesExactDuplicates(t *testing.T) {
	db, d := setup(t, []row{
		{1, "a", 1.5}, {1, "a", 1.5}, {1, "a", 1.5},
		{2, "b", 2.0}, {2, "b", 2.0},
		{2, "b", 2.5},
		{3, "c", nil}, {3, "c", nil},
	})
	n, err := Reconcile(context.Background(), db, d, table)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got := tuples(t, db)
	assert.Len(t, got, 4)
	for k, c := range got {
		assert.Equal(t, 1, c, k)
	}
}

func TestReconcileDuplicateFreeIsNoop(t *testing.T) {
	db, d := setup(t, []row{{1, "a", 1.0}, {2, "a", 1.0}, {1, "b", 1.0}})
	before := tuples(t, db)
	n, err := Reconcile(context.Background(), db, d, table)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, before, tuples(t, db))
}

func TestReconcileProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 20; iter++ {
		var rows []row
		for i := 0; i < rng.Intn(25); i++ {
			rows = append(rows, row{1 + rng.Intn(3), []string{"x", "y"}[rng.Intn(2)], float64(rng.Intn(2))})
		}
		db, d := setup(t, rows)
		before := tuples(t, db)
		total := 0
		for _, c := range before {
			total += c
		}

		n, err := Reconcile(context.Background(), db, d, table)
		require.NoError(t, err)
		after := tuples(t, db)

		assert.Equal(t, int64(total-len(before)), n)
		assert.Len(t, after, len(before))
		for k := range before {
			assert.Equal(t, 1, after[k], k)
		}

		// second pass removes nothing
		n, err = Reconcile(context.Background(), db, d, table)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestReconcileMissingTable(t *testing.T) {
	ctx := context.Background()
	db, d, err := warehouse.Connect(ctx, warehouse.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close(ctx)

	_, err = Reconcile(ctx, db, d, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, etlerr.ErrReconciliation))
}
