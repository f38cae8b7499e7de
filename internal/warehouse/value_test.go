package warehouse

import (
	"testing"
	"time"
)

func TestToTime(t *testing.T) {
	t.Parallel()
	want := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	for _, in := range []any{
		want,
		want.In(time.FixedZone("X", -7200)),
		"2023-01-03 00:00:00.000000000",
		[]byte("2023-01-03 00:00:00"),
		"2023-01-03T00:00:00Z",
		"2023-01-03",
	} {
		got, err := ToTime(in)
		if err != nil {
			t.Fatalf("%v: %v", in, err)
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("%v: got %v", in, got)
		}
	}
	if _, err := ToTime(42); err == nil {
		t.Fatal("expected error for int")
	}
	if _, err := ToTime("yesterday"); err == nil {
		t.Fatal("expected error for garbage")
	}
}

func TestToInt64(t *testing.T) {
	t.Parallel()
	for _, in := range []any{int64(7), int32(7), 7, []byte("7"), " 7 ", float64(7)} {
		n, err := ToInt64(in)
		if err != nil || n != 7 {
			t.Fatalf("%#v: got %d, %v", in, n, err)
		}
	}
	if n, err := ToInt64(nil); err != nil || n != 0 {
		t.Fatalf("nil: %d %v", n, err)
	}
	if _, err := ToInt64("x"); err == nil {
		t.Fatal("expected parse error")
	}
}
