package robot

import (
	"fmt"
	"strings"
)

// ValidationError rejects an operation before any hardware command is
// issued: cardinality mismatches, out-of-range waypoint selections.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// JointFailure records which joint failed an operation and why.
type JointFailure struct {
	ID   int
	Name string
	Err  error
}

func (f JointFailure) String() string {
	return fmt.Sprintf("%s (id %d): %v", f.Name, f.ID, f.Err)
}

// MoveError aggregates the per-joint failures of one best-effort move:
// the remaining joints were still attempted.
type MoveError struct {
	Failures []JointFailure
}

func (e *MoveError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.String()
	}
	return fmt.Sprintf("move failed for %d joint(s): %s",
		len(e.Failures), strings.Join(names, "; "))
}

// WaypointError marks the 1-based waypoint at which a sequence aborted.
// Later waypoints were never attempted.
type WaypointError struct {
	Index int
	Err   error
}

func (e *WaypointError) Error() string {
	return fmt.Sprintf("waypoint %d: %v", e.Index, e.Err)
}

func (e *WaypointError) Unwrap() error { return e.Err }
