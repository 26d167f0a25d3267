package robot

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soarmkit/soarm/pkg/servobus"
)

func twoJointSet() CalibrationSet {
	return CalibrationSet{
		1: {ID: 1, Name: "shoulder_pan", RangeMin: 1000, RangeMax: 3000},
		2: {ID: 2, Name: "shoulder_lift", RangeMin: 500, RangeMax: 3500},
	}
}

func TestMoveToPositionCardinalityMismatch(t *testing.T) {
	link := &fakeLink{}
	exec := &Executor{Link: link, Cal: twoJointSet(), Logger: testLogger()}

	err := exec.MoveToPosition([]int{2000}, 200, 100)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Rejected before any hardware command.
	assert.Empty(t, link.writes)
}

func TestMoveToPositionNoCalibration(t *testing.T) {
	exec := &Executor{Link: &fakeLink{}, Cal: CalibrationSet{}, Logger: testLogger()}
	err := exec.MoveToPosition(nil, 200, 100)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestMoveToPositionClampsTargets(t *testing.T) {
	var logs bytes.Buffer
	link := &fakeLink{}
	exec := &Executor{Link: link, Cal: twoJointSet(), Logger: log.New(&logs)}

	// 3500 exceeds joint 1's calibrated max of 3000.
	require.NoError(t, exec.MoveToPosition([]int{3500, 600}, 200, 100))

	assert.Equal(t, []int{3000}, link.goalWrites(1))
	assert.Equal(t, []int{600}, link.goalWrites(2))

	// The correction is reported, naming the joint and both values.
	out := logs.String()
	assert.Contains(t, out, "clamped")
	assert.Contains(t, out, "shoulder_pan")
	assert.Contains(t, out, "3500")
	assert.Contains(t, out, "3000")

	// An in-range move logs no correction.
	logs.Reset()
	require.NoError(t, exec.MoveToPosition([]int{2000, 600}, 200, 100))
	assert.NotContains(t, logs.String(), "clamped")
}

func TestMoveToPositionBestEffort(t *testing.T) {
	// Joint 1's goal write faults but joint 2 is still commanded.
	link := &fakeLink{}
	link.onWrite = func(id int, reg servobus.Register, value int) error {
		if id == 1 && reg == servobus.RegGoalPosition {
			return &servobus.FaultError{ID: 1, Code: 0x04}
		}
		return nil
	}
	exec := &Executor{Link: link, Cal: twoJointSet(), Logger: testLogger()}

	err := exec.MoveToPosition([]int{2000, 2000}, 200, 100)
	var merr *MoveError
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Failures, 1)
	assert.Equal(t, 1, merr.Failures[0].ID)

	assert.Equal(t, []int{2000}, link.goalWrites(2))
}

func TestMoveToPositionAscendingOrder(t *testing.T) {
	link := &fakeLink{}
	exec := &Executor{Link: link, Cal: twoJointSet(), Logger: testLogger()}
	require.NoError(t, exec.MoveToPosition([]int{2000, 2500}, 200, 100))

	var order []int
	for _, w := range link.writes {
		if w.reg == servobus.RegGoalPosition {
			order = append(order, w.id)
		}
	}
	assert.Equal(t, []int{1, 2}, order)
}

func TestExecuteWaypointsFailFast(t *testing.T) {
	// The second waypoint fails every joint; the third must never run.
	calls := 0
	link := &fakeLink{}
	link.onWrite = func(id int, reg servobus.Register, value int) error {
		if reg == servobus.RegGoalPosition {
			calls++
			if calls > 2 && calls <= 4 {
				return errors.New("bus glitch")
			}
		}
		return nil
	}
	exec := &Executor{Link: link, Cal: twoJointSet(), Logger: testLogger()}

	waypoints := [][]int{
		{2000, 2000},
		{2100, 2100},
		{2200, 2200},
	}
	err := exec.ExecuteWaypoints(context.Background(), waypoints, 200, 100, time.Nanosecond)

	var werr *WaypointError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, 2, werr.Index)

	var merr *MoveError
	assert.ErrorAs(t, werr.Err, &merr)

	// Only waypoints 1 and 2 were attempted.
	assert.Equal(t, 4, calls)
}

func TestExecuteWaypointsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &Executor{Link: &fakeLink{}, Cal: twoJointSet(), Logger: testLogger()}
	err := exec.ExecuteWaypoints(ctx, [][]int{{2000, 2000}}, 200, 100, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCurrentPositionsSubstitutesZero(t *testing.T) {
	link := &fakeLink{}
	link.onRead = func(id int, reg servobus.Register) (int, error) {
		if id == 2 {
			return 0, &servobus.TxError{ID: 2, Err: errors.New("timeout")}
		}
		return 1234, nil
	}
	exec := &Executor{Link: link, Cal: twoJointSet(), Logger: testLogger()}

	assert.Equal(t, []int{1234, 0}, exec.CurrentPositions())
}
