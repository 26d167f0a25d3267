package robot

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soarmkit/soarm/pkg/servobus"
)

// Executor issues clamped joint moves against a calibration set. Moves are
// fire-and-forget: the servo firmware executes the trajectory, and the
// executor holds for fixed dwell times instead of polling for arrival.
type Executor struct {
	Link   Link
	Cal    CalibrationSet
	Logger *log.Logger
}

// MoveToPosition commands every joint, in ascending-id order, toward its
// target. Targets outside a joint's calibrated range are clamped to the
// bound and the correction logged. A joint failure does not stop the
// remaining joints; the aggregate result reports every joint that failed.
func (e *Executor) MoveToPosition(targets []int, speed, accel int) error {
	if len(e.Cal) == 0 {
		return validationf("no calibration loaded")
	}
	if len(targets) != len(e.Cal) {
		return validationf("expected %d positions, got %d", len(e.Cal), len(targets))
	}

	var failures []JointFailure
	for i, id := range e.Cal.IDs() {
		cal := e.Cal[id]

		if err := setupJoint(e.Link, id, speed, accel); err != nil {
			failures = append(failures, JointFailure{ID: id, Name: cal.Name, Err: err})
			continue
		}

		target, clamped := cal.Clamp(targets[i])
		if clamped {
			e.Logger.Warn("clamped target to calibrated range",
				"joint", cal.Name, "target", targets[i], "commanded", target)
		}

		if err := e.Link.WriteRegister(id, servobus.RegGoalPosition, target); err != nil {
			failures = append(failures, JointFailure{ID: id, Name: cal.Name, Err: err})
		}
	}

	if len(failures) > 0 {
		return &MoveError{Failures: failures}
	}
	return nil
}

// ExecuteWaypoints drives the arm through each waypoint's positions in
// order, holding for wait after each move. The first failing waypoint
// aborts the rest; already-executed waypoints are not rolled back.
func (e *Executor) ExecuteWaypoints(ctx context.Context, waypoints [][]int, speed, accel int, wait time.Duration) error {
	for i, positions := range waypoints {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.Logger.Info("moving to waypoint",
			"waypoint", i+1, "of", len(waypoints), "positions", positions)

		if err := e.MoveToPosition(positions, speed, accel); err != nil {
			return &WaypointError{Index: i + 1, Err: err}
		}

		sleep(ctx, wait)
		e.logReachedPositions()
	}
	return ctx.Err()
}

// logReachedPositions reads back where each joint ended up, for
// diagnostics only. Read failures are reported, not fatal.
func (e *Executor) logReachedPositions() {
	for _, id := range e.Cal.IDs() {
		cal := e.Cal[id]
		pos, err := e.Link.ReadRegister(id, servobus.RegPresentPosition)
		if err != nil {
			e.Logger.Warn("position read failed", "joint", cal.Name, "err", err)
			continue
		}
		e.Logger.Debug("joint position", "joint", cal.Name, "position", pos)
	}
}

// CurrentPositions reads every joint's position in ascending-id order,
// substituting 0 for joints that fail to reply.
func (e *Executor) CurrentPositions() []int {
	positions := make([]int, 0, len(e.Cal))
	for _, id := range e.Cal.IDs() {
		pos, err := e.Link.ReadRegister(id, servobus.RegPresentPosition)
		if err != nil {
			pos = 0
		}
		positions = append(positions, pos)
	}
	return positions
}
