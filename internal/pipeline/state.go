package pipeline

import "fmt"

// State is a table's position in the load lifecycle.
type State int

const (
	Disconnected State = iota
	TableEnsured
	OriginalLoaded
	IncrementalLoaded
	Deduplicated
)

var stateNames = [...]string{
	Disconnected:      "disconnected",
	TableEnsured:      "table_ensured",
	OriginalLoaded:    "original_loaded",
	IncrementalLoaded: "incremental_loaded",
	Deduplicated:      "deduplicated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// transitions lists the legal moves of one table. Deduplicated loops back
// to IncrementalLoaded for the next extract; OriginalLoaded goes straight to
// Deduplicated when there is no incremental extract. Closing the session is
// run-wide and is recorded in Report.Closed, not as a table state.
var transitions = map[State][]State{
	Disconnected:      {TableEnsured},
	TableEnsured:      {OriginalLoaded},
	OriginalLoaded:    {IncrementalLoaded, Deduplicated},
	IncrementalLoaded: {Deduplicated},
	Deduplicated:      {IncrementalLoaded},
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
