package extract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"csvwarehouse/internal/warehouse"
)

var masterCols = []ColumnSpec{
	{Name: "Date", Type: warehouse.TypeDateTime},
	{Name: "Server", Type: warehouse.TypeString},
	{Name: "Cost", Type: warehouse.TypeFloat},
}

func TestReadFromTypedColumns(t *testing.T) {
	in := "\ufeffDate;Server;Cost\n2023-01-01;srv-a;10.5\n2023-01-02 ; srv-b ;\n"
	rows, err := ReadFrom(context.Background(), strings.NewReader(in), Source{
		Delimiter: ";", HasHeader: true, Columns: masterCols,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), rows[0]["Date"])
	assert.Equal(t, "srv-a", rows[0]["Server"])
	assert.Equal(t, 10.5, rows[0]["Cost"])
	assert.Equal(t, "srv-b", rows[1]["Server"])
	assert.Nil(t, rows[1]["Cost"])
}

func TestReadFromKeepsUnparseableAsRaw(t *testing.T) {
	in := "Date;Server;Cost\nnot-a-date;srv;1\n"
	rows, err := ReadFrom(context.Background(), strings.NewReader(in), Source{
		Delimiter: ";", HasHeader: true, Columns: masterCols,
	})
	require.NoError(t, err)
	assert.Equal(t, "not-a-date", rows[0]["Date"])
}

func TestReadFromHeaderMapping(t *testing.T) {
	in := "qty,OrderID,price\n2,7,1.25\n"
	rows, err := ReadFrom(context.Background(), strings.NewReader(in), Source{
		HasHeader: true,
		Columns: []ColumnSpec{
			{Name: "order_id", Header: "orderid", Type: warehouse.TypeInt},
			{Name: "unit_price", Header: "price", Type: warehouse.TypeDecimal},
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0]["order_id"])
	assert.True(t, decimal.RequireFromString("1.25").Equal(rows[0]["unit_price"].(decimal.Decimal)))
	_, hasQty := rows[0]["qty"]
	assert.False(t, hasQty)
}

func TestReadFromMissingHeaderColumn(t *testing.T) {
	_, err := ReadFrom(context.Background(), strings.NewReader("a,b\n1,2\n"), Source{
		HasHeader: true,
		Columns:   []ColumnSpec{{Name: "c", Type: warehouse.TypeInt}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header lacks")
}

func TestReadFromHeaderless(t *testing.T) {
	rows, err := ReadFrom(context.Background(), strings.NewReader("2023-02-01;x;3\n\n"), Source{
		Delimiter: ";", Columns: masterCols,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0]["Server"])

	_, err = ReadFrom(context.Background(), strings.NewReader("a\n"), Source{})
	require.Error(t, err)
}

func TestReadFromAllStringsWhenUndeclared(t *testing.T) {
	rows, err := ReadFrom(context.Background(), strings.NewReader("id,name\n1,ann\n"), Source{HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, "1", rows[0]["id"])
	assert.Equal(t, "ann", rows[0]["name"])
}

func TestReadFromEmptyInput(t *testing.T) {
	rows, err := ReadFrom(context.Background(), strings.NewReader(""), Source{HasHeader: true, Columns: masterCols})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadFromWindows1250(t *testing.T) {
	raw, err := charmap.Windows1250.NewEncoder().String("name\nŽluťoučký kůň\n")
	require.NoError(t, err)
	rows, err := ReadFrom(context.Background(), strings.NewReader(raw), Source{HasHeader: true, Encoding: "windows-1250"})
	require.NoError(t, err)
	assert.Equal(t, "Žluťoučký kůň", rows[0]["name"])
}

func TestReadFromRejectsBadOptions(t *testing.T) {
	_, err := ReadFrom(context.Background(), strings.NewReader("x"), Source{Encoding: "ebcdic"})
	assert.Error(t, err)
	_, err = ReadFrom(context.Background(), strings.NewReader("x"), Source{Delimiter: ";;"})
	assert.Error(t, err)
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func TestReaderReadWrapsPath(t *testing.T) {
	r := Reader{Open: func(p string) (io.ReadCloser, error) {
		if p == "missing.csv" {
			return nil, errors.New("no such file")
		}
		return nopCloser{strings.NewReader("id\n1\n")}, nil
	}}
	rows, err := r.Read(context.Background(), Source{Path: "ok.csv", HasHeader: true})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = r.Read(context.Background(), Source{Path: "missing.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestParseTimeLayouts(t *testing.T) {
	want := time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC)
	for _, tc := range []struct{ in, layout string }{
		{"2023-01-04", ""},
		{"04.01.2023", "02.01.2006"},
		{"2023-01-04 00:00:00", ""},
		{"2023-01-04T00:00:00Z", ""},
		{"01/04/2023", ""},
	} {
		got, err := ParseTime(tc.in, tc.layout)
		require.NoError(t, err, tc.in)
		assert.True(t, want.Equal(got), tc.in)
	}
	_, err := ParseTime("soon", "")
	assert.Error(t, err)
}
