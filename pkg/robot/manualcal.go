package robot

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/soarmkit/soarm/pkg/servobus"
)

// ManualInput is the core's only view of the user during manual
// calibration: a done signal ending range recording and a blocking wait
// for the arm to be placed at its home pose. No terminal capability is
// assumed beyond that.
type ManualInput interface {
	Done() <-chan struct{}
	AwaitHome(ctx context.Context) error
}

// RangeObservation is one joint's live accumulation state, reported to the
// progress callback after every sample pass.
type RangeObservation struct {
	ID      int
	Name    string
	Current *int
	Min     *int
	Max     *int
}

// ManualCalibrator records each joint's range while the user moves the arm
// by hand. Torque is disabled for the whole session; observed extremes
// accumulate continuously and never reset until a new calibration run.
type ManualCalibrator struct {
	Link   Link
	Joints []JointConfig
	Logger *log.Logger

	SampleInterval time.Duration
	OnSample       func([]RangeObservation)
}

type rangeTracker struct {
	current *int
	min     *int
	max     *int
	home    *int
}

// observe folds one position sample into the tracker. The extremes move
// only when the sample is strictly beyond them.
func (t *rangeTracker) observe(pos int) {
	p := pos
	t.current = &p
	if t.min == nil || pos < *t.min {
		v := pos
		t.min = &v
	}
	if t.max == nil || pos > *t.max {
		v := pos
		t.max = &v
	}
}

// Calibrate runs the observation loop until the input signals done, then
// takes one more sample per joint as the home position. Joints missing a
// min, max, or home sample are rejected individually.
func (m *ManualCalibrator) Calibrate(ctx context.Context, input ManualInput) (CalibrationSet, []JointFailure, error) {
	if m.SampleInterval <= 0 {
		m.SampleInterval = 100 * time.Millisecond
	}

	for _, joint := range m.Joints {
		if err := m.Link.WriteRegister(joint.ID, servobus.RegTorqueEnable, 0); err != nil {
			m.Logger.Warn("joint may not be responding", "joint", joint.Name, "err", err)
		}
	}

	trackers := make(map[int]*rangeTracker, len(m.Joints))
	for _, joint := range m.Joints {
		trackers[joint.ID] = &rangeTracker{}
	}

	// Busy-wait sampling loop; the done signal is checked once per
	// iteration, never mid-operation.
recording:
	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-input.Done():
			break recording
		default:
		}

		for _, joint := range m.Joints {
			pos, err := m.Link.ReadRegister(joint.ID, servobus.RegPresentPosition)
			if err != nil {
				continue
			}
			trackers[joint.ID].observe(pos)
		}
		m.report(trackers)

		sleep(ctx, m.SampleInterval)
	}

	if err := input.AwaitHome(ctx); err != nil {
		return nil, nil, err
	}
	for _, joint := range m.Joints {
		pos, err := m.Link.ReadRegister(joint.ID, servobus.RegPresentPosition)
		if err != nil {
			m.Logger.Warn("could not read home position", "joint", joint.Name, "err", err)
			continue
		}
		p := pos
		trackers[joint.ID].home = &p
	}

	set := make(CalibrationSet)
	var failures []JointFailure
	for _, joint := range m.Joints {
		t := trackers[joint.ID]
		if t.min == nil || t.max == nil || t.home == nil {
			failures = append(failures, JointFailure{
				ID:   joint.ID,
				Name: joint.Name,
				Err:  errors.New("insufficient samples for range and home"),
			})
			continue
		}

		set[joint.ID] = JointCalibration{
			ID:           joint.ID,
			Name:         joint.Name,
			DriveMode:    joint.DriveMode,
			HomingOffset: *t.home - CenterPosition,
			RangeMin:     *t.min,
			RangeMax:     *t.max,
		}
		m.Logger.Info("joint calibrated",
			"joint", joint.Name,
			"min", *t.min, "max", *t.max, "home", *t.home)
	}

	if len(set) == 0 {
		return nil, failures, errors.New("no joints calibrated")
	}
	return set, failures, nil
}

func (m *ManualCalibrator) report(trackers map[int]*rangeTracker) {
	if m.OnSample == nil {
		return
	}
	obs := make([]RangeObservation, 0, len(m.Joints))
	for _, joint := range m.Joints {
		t := trackers[joint.ID]
		obs = append(obs, RangeObservation{
			ID:      joint.ID,
			Name:    joint.Name,
			Current: t.current,
			Min:     t.min,
			Max:     t.max,
		})
	}
	m.OnSample(obs)
}
