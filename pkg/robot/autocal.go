package robot

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/soarmkit/soarm/pkg/servobus"
)

// Automatic calibration defaults: slow, low-acceleration motion with a
// small fixed probing step.
const (
	CalibrationSpeed  = 500
	CalibrationAccel  = 100
	PositionStep      = 10
	OverloadThreshold = 3
)

// AutoCalibrator discovers each joint's mechanical limits by stepping the
// joint until the servo reports consecutive faults. The overload count is
// the only retry/backoff mechanism in the system: probing continues past
// isolated failures and stops only when Threshold failures accrue in a row.
type AutoCalibrator struct {
	Link   Link
	Joints []JointConfig
	Logger *log.Logger

	Step      int
	Threshold int
	Speed     int
	Accel     int

	StepDelay   time.Duration // between successful probe moves
	SettleDelay time.Duration // before commanding the return to start
	ReturnDelay time.Duration // for the return move to complete
}

func (a *AutoCalibrator) defaults() {
	if a.Step <= 0 {
		a.Step = PositionStep
	}
	if a.Threshold <= 0 {
		a.Threshold = OverloadThreshold
	}
	if a.Speed <= 0 {
		a.Speed = CalibrationSpeed
	}
	if a.Accel <= 0 {
		a.Accel = CalibrationAccel
	}
	if a.StepDelay <= 0 {
		a.StepDelay = 100 * time.Millisecond
	}
	if a.SettleDelay <= 0 {
		a.SettleDelay = 500 * time.Millisecond
	}
	if a.ReturnDelay <= 0 {
		a.ReturnDelay = time.Second
	}
}

// Calibrate probes every configured joint independently. A joint that
// cannot be set up or read fails alone; the run succeeds if at least one
// joint calibrated. Cancellation aborts the run, leaving the last issued
// commands in place.
func (a *AutoCalibrator) Calibrate(ctx context.Context) (CalibrationSet, []JointFailure, error) {
	a.defaults()

	set := make(CalibrationSet)
	var failures []JointFailure

	for _, joint := range a.Joints {
		a.Logger.Info("calibrating joint", "joint", joint.Name, "id", joint.ID)

		cal, err := a.calibrateJoint(ctx, joint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, failures, ctx.Err()
			}
			a.Logger.Error("joint calibration failed", "joint", joint.Name, "err", err)
			failures = append(failures, JointFailure{ID: joint.ID, Name: joint.Name, Err: err})
			continue
		}

		set[joint.ID] = cal
		a.Logger.Info("joint calibrated",
			"joint", joint.Name,
			"min", cal.RangeMin, "max", cal.RangeMax, "range", cal.RangeSize())
	}

	if len(set) == 0 {
		return nil, failures, errors.New("no joints calibrated")
	}
	return set, failures, nil
}

func (a *AutoCalibrator) calibrateJoint(ctx context.Context, joint JointConfig) (JointCalibration, error) {
	if err := setupJoint(a.Link, joint.ID, a.Speed, a.Accel); err != nil {
		return JointCalibration{}, errors.Wrap(err, "setup")
	}

	start, err := a.Link.ReadRegister(joint.ID, servobus.RegPresentPosition)
	if err != nil {
		return JointCalibration{}, errors.Wrap(err, "read start position")
	}

	min, err := a.probe(ctx, joint.ID, start, -1)
	if err != nil {
		return JointCalibration{}, err
	}
	if err := a.returnToStart(ctx, joint.ID, start, a.ReturnDelay); err != nil {
		return JointCalibration{}, err
	}

	max, err := a.probe(ctx, joint.ID, start, 1)
	if err != nil {
		return JointCalibration{}, err
	}
	if err := a.returnToStart(ctx, joint.ID, start, a.SettleDelay); err != nil {
		return JointCalibration{}, err
	}

	return JointCalibration{
		ID:           joint.ID,
		Name:         joint.Name,
		DriveMode:    joint.DriveMode,
		HomingOffset: floorDiv2(min+max) - CenterPosition,
		RangeMin:     min,
		RangeMax:     max,
	}, nil
}

// probe steps the joint from start toward one end of the position domain.
// The boundary is the last position that succeeded before Threshold
// consecutive failures, i.e. failing position + step; if the absolute
// domain bound is reached first, that bound is the boundary. The step size
// is constant for the whole scan; the boundary formula depends on it.
func (a *AutoCalibrator) probe(ctx context.Context, id, start, dir int) (int, error) {
	step := dir * a.Step
	overloads := 0

	for pos := start; ; pos += step {
		if dir < 0 && pos < MinPosition {
			return MinPosition, nil
		}
		if dir > 0 && pos > MaxPosition {
			return MaxPosition, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := a.Link.WriteRegister(id, servobus.RegGoalPosition, pos); err != nil {
			// Any move failure counts toward the threshold; a device
			// fault here is the boundary signal, not an error.
			overloads++
			if overloads >= a.Threshold {
				return pos - step, nil
			}
		} else {
			overloads = 0
			sleep(ctx, a.StepDelay)
		}
	}
}

func (a *AutoCalibrator) returnToStart(ctx context.Context, id, start int, dwell time.Duration) error {
	sleep(ctx, a.SettleDelay)
	if err := a.Link.WriteRegister(id, servobus.RegGoalPosition, start); err != nil {
		return errors.Wrap(err, "return to start")
	}
	sleep(ctx, dwell)
	return ctx.Err()
}

// floorDiv2 halves v rounding toward negative infinity. Midpoints of
// ranges spanning negative positions round down, not toward zero.
func floorDiv2(v int) int {
	if v < 0 && v%2 != 0 {
		return v/2 - 1
	}
	return v / 2
}

// setupJoint configures acceleration and speed, then enables torque.
func setupJoint(link Link, id, speed, accel int) error {
	if err := link.WriteRegister(id, servobus.RegGoalAcceleration, accel); err != nil {
		return err
	}
	if err := link.WriteRegister(id, servobus.RegGoalSpeed, speed); err != nil {
		return err
	}
	return link.WriteRegister(id, servobus.RegTorqueEnable, 1)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
