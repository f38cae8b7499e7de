package etlerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"connection", Wrap(ErrConnection, "", "connect", errors.New("refused")), ExitConnection},
		{"schema detail", fmt.Errorf("%w: %w: dbo.t", ErrSchema, ErrTableMissing), ExitSchema},
		{"data", &DataError{Column: "Date", Row: 2, Key: "id=1"}, ExitData},
		{"load", &LoadError{Table: "t", Err: errors.New("constraint")}, ExitLoad},
		{"reconcile", Wrap(ErrReconciliation, "t", "reconcile", errors.New("lock")), ExitReconciliation},
		{"joined takes most severe", errors.Join(
			Wrap(ErrReconciliation, "a", "reconcile", errors.New("x")),
			Wrap(ErrData, "b", "incremental #1", &DataError{Column: "Date", Row: 1}),
		), ExitData},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ExitCode(c.err); got != c.want {
				t.Fatalf("ExitCode = %d, want %d", got, c.want)
			}
		})
	}
}

func TestStageErrorUnwrapsBoth(t *testing.T) {
	cause := &LoadError{Table: "t", Row: 3, Key: "id=3", Err: errors.New("dup")}
	err := Wrap(ErrLoad, "t", "original load", cause)

	var le *LoadError
	if !errors.As(err, &le) || le.Row != 3 {
		t.Fatalf("errors.As LoadError failed: %v", err)
	}
	if !errors.Is(err, ErrLoad) {
		t.Fatal("kind sentinel lost")
	}
	want := "load error: table t: original load: load t: row 3 (id=3): dup"
	if err.Error() != want {
		t.Fatalf("Error() = %q", err.Error())
	}
	if Wrap(ErrLoad, "t", "x", nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
}

func TestDataErrorMessages(t *testing.T) {
	missing := &DataError{Column: "Date", Row: 1, Key: "id=1"}
	if missing.Error() != `row 1 (id=1): missing timestamp column "Date"` {
		t.Fatalf("got %q", missing.Error())
	}
	bad := &DataError{Column: "Date", Row: 2, Key: "id=2", Value: "soon"}
	if bad.Error() != `row 2 (id=2): unparseable timestamp "Date"=soon (string)` {
		t.Fatalf("got %q", bad.Error())
	}
}
