// Package etlerr defines the error taxonomy of a load run.
//
// Every stage failure wraps one of the kind sentinels so callers can branch
// with errors.Is:
//
//	if errors.Is(err, etlerr.ErrData) {
//	    // reject the batch, do not retry automatically
//	}
package etlerr

import (
	"errors"
	"fmt"
)

// Kind sentinels.
var (
	// ErrConnection: the warehouse cannot be reached. Fatal for the whole run.
	ErrConnection = errors.New("connection error")

	// ErrSchema: table missing when expected, or DDL conflict. Fatal for the
	// table's pipeline only.
	ErrSchema = errors.New("schema error")

	// ErrData: missing or unparseable timestamp. Fatal for the batch.
	ErrData = errors.New("data error")

	// ErrLoad: insert failure mid-batch. The batch was rolled back.
	ErrLoad = errors.New("load error")

	// ErrReconciliation: dedup statement failed. Loaded data stands.
	ErrReconciliation = errors.New("reconciliation error")
)

// Detail sentinels, always reported together with ErrSchema.
var (
	ErrTableMissing = errors.New("table does not exist")
	ErrDDLConflict  = errors.New("ddl conflict")
)

// Exit codes returned by ExitCode.
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitConnection     = 2
	ExitSchema         = 3
	ExitData           = 4
	ExitLoad           = 5
	ExitReconciliation = 6
)

// StageError attributes a failure to a table and pipeline stage.
type StageError struct {
	Kind  error
	Table string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: table %s: %s: %v", e.Kind, e.Table, e.Stage, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *StageError) Unwrap() []error { return []error{e.Kind, e.Err} }

// Wrap builds a StageError, or returns nil when err is nil.
func Wrap(kind error, table, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Kind: kind, Table: table, Stage: stage, Err: err}
}

// DataError rejects an incremental batch because of one offending row.
type DataError struct {
	Column string
	Row    int    // 1-based position in the transformed batch
	Key    string // natural key rendering
	Value  any    // raw offending value (nil when missing)
}

func (e *DataError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("row %d (%s): missing timestamp column %q", e.Row, e.Key, e.Column)
	}
	return fmt.Sprintf("row %d (%s): unparseable timestamp %q=%v (%T)", e.Row, e.Key, e.Column, e.Value, e.Value)
}

func (e *DataError) Is(target error) bool { return target == ErrData }

// LoadError identifies the row whose insert aborted a batch.
type LoadError struct {
	Table string
	Row   int    // 1-based position in the batch, 0 when not row-specific
	Key   string // natural key rendering, empty when not row-specific
	Err   error
}

func (e *LoadError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("load %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("load %s: row %d (%s): %v", e.Table, e.Row, e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ExitCode maps an error to a process exit code. Joined errors report the
// most severe kind they contain.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch {
	case errors.Is(err, ErrConnection):
		return ExitConnection
	case errors.Is(err, ErrSchema):
		return ExitSchema
	case errors.Is(err, ErrData):
		return ExitData
	case errors.Is(err, ErrLoad):
		return ExitLoad
	case errors.Is(err, ErrReconciliation):
		return ExitReconciliation
	}
	return ExitGeneralError
}
