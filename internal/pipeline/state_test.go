package pipeline

import "testing"

func TestTransitions(t *testing.T) {
	legal := [][2]State{
		{Disconnected, TableEnsured},
		{TableEnsured, OriginalLoaded},
		{OriginalLoaded, IncrementalLoaded},
		{OriginalLoaded, Deduplicated},
		{IncrementalLoaded, Deduplicated},
		{Deduplicated, IncrementalLoaded},
	}
	for _, p := range legal {
		if !CanTransition(p[0], p[1]) {
			t.Errorf("%s -> %s should be legal", p[0], p[1])
		}
	}
	illegal := [][2]State{
		{Disconnected, OriginalLoaded},
		{TableEnsured, IncrementalLoaded},
		{IncrementalLoaded, IncrementalLoaded},
		{Deduplicated, Disconnected},
		{Deduplicated, Deduplicated},
	}
	for _, p := range illegal {
		if CanTransition(p[0], p[1]) {
			t.Errorf("%s -> %s should be illegal", p[0], p[1])
		}
	}
	if Deduplicated.String() != "deduplicated" || State(42).String() != "state(42)" {
		t.Fatal("unexpected state names")
	}
}
