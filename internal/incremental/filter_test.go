package incremental

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/records"
)

func day(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }

func rowsAt(days ...int) []records.Record {
	out := make([]records.Record, len(days))
	for i, d := range days {
		out[i] = records.Record{"id": int64(i), "ts": day(d)}
	}
	return out
}

func TestFilterStrictlyAfterWatermark(t *testing.T) {
	res, err := Filter(rowsAt(2, 4, 3, 5), "ts", []string{"id"}, day(3))
	require.NoError(t, err)
	require.Equal(t, New, res.Kind)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, day(4), res.Rows[0]["ts"])
	assert.Equal(t, day(5), res.Rows[1]["ts"])
}

func TestFilterEmptyOutcomes(t *testing.T) {
	res, err := Filter(nil, "ts", nil, day(1))
	require.NoError(t, err)
	assert.Equal(t, Empty, res.Kind)
	assert.Nil(t, res.Rows)

	res, err = Filter(rowsAt(1, 2, 3), "ts", nil, day(3))
	require.NoError(t, err)
	assert.Equal(t, Empty, res.Kind)
	assert.Equal(t, "empty", res.Kind.String())
}

func TestFilterRejectsWholeBatch(t *testing.T) {
	rows := rowsAt(4, 5)
	rows = append(rows, records.Record{"id": int64(7), "ts": "2023-13-45"})

	_, err := Filter(rows, "ts", []string{"id"}, day(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, etlerr.ErrData))
	var de *etlerr.DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.Row)
	assert.Equal(t, "id=7", de.Key)
	assert.Equal(t, "2023-13-45", de.Value)

	rows[2]["ts"] = nil
	_, err = Filter(rows, "ts", []string{"id"}, day(1))
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "missing timestamp")

	_, err = Filter([]records.Record{{"id": int64(1)}}, "ts", []string{"id"}, day(1))
	assert.ErrorIs(t, err, etlerr.ErrData)
}

func TestCheckAcceptsOldRows(t *testing.T) {
	rows := rowsAt(1, 2)
	rows[0]["ts"] = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, Check(rows, "ts", []string{"id"}))
	assert.NoError(t, Check(nil, "ts", nil))

	rows = append(rows, records.Record{"id": int64(9), "ts": "not-a-date"})
	err := Check(rows, "ts", []string{"id"})
	var de *etlerr.DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.Row)
	assert.Equal(t, "id=9", de.Key)
}

// Output is exactly {r : r.ts > W}, a subsequence of the input.
func TestFilterProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(30)
		days := make([]int, n)
		maxDay := 0
		for i := range days {
			days[i] = 1 + rng.Intn(28)
			maxDay = max(maxDay, days[i])
		}
		rows := rowsAt(days...)
		w := day(1 + rng.Intn(28))

		res, err := Filter(rows, "ts", []string{"id"}, w)
		require.NoError(t, err)

		var want []records.Record
		for _, r := range rows {
			if r["ts"].(time.Time).After(w) {
				want = append(want, r)
			}
		}
		if len(want) == 0 {
			assert.Equal(t, Empty, res.Kind)
		} else {
			assert.Equal(t, New, res.Kind)
		}
		assert.Equal(t, want, res.Rows)

		if n > 0 {
			res, err = Filter(rows, "ts", nil, day(maxDay))
			require.NoError(t, err)
			assert.Equal(t, Empty, res.Kind)
		}
	}
}
