package robot

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soarmkit/soarm/pkg/servobus"
)

// scriptedInput signals done after a fixed number of sample passes and
// provides canned home reads.
type scriptedInput struct {
	done chan struct{}
}

func newScriptedInput() *scriptedInput {
	return &scriptedInput{done: make(chan struct{})}
}

func (s *scriptedInput) Done() <-chan struct{} { return s.done }

func (s *scriptedInput) AwaitHome(ctx context.Context) error { return nil }

func (s *scriptedInput) finish() { close(s.done) }

func TestManualCalibrateTracksExtremes(t *testing.T) {
	// Joint 1 swings 100 -> 50 -> 200 during recording, then rests at
	// 120 for the home sample. Min and max come from the sweep, the
	// homing offset from the rest pose.
	samples := []int{100, 50, 200}
	sampleIdx := 0
	recording := true

	input := newScriptedInput()
	link := &fakeLink{}
	link.onRead = func(id int, reg servobus.Register) (int, error) {
		if !recording {
			return 120, nil
		}
		pos := samples[sampleIdx]
		return pos, nil
	}

	cal := &ManualCalibrator{
		Link:           link,
		Joints:         []JointConfig{{ID: 1, Name: "shoulder_pan"}},
		Logger:         testLogger(),
		SampleInterval: time.Nanosecond,
		OnSample: func(obs []RangeObservation) {
			sampleIdx++
			if sampleIdx == len(samples) {
				recording = false
				input.finish()
			}
		},
	}

	set, failures, err := cal.Calibrate(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, failures)

	jc := set[1]
	assert.Equal(t, 50, jc.RangeMin)
	assert.Equal(t, 200, jc.RangeMax)
	assert.Equal(t, 120-CenterPosition, jc.HomingOffset)
}

func TestManualCalibrateHomeAtCenter(t *testing.T) {
	// A joint resting at the theoretical center has homing offset 0.
	input := newScriptedInput()
	link := &fakeLink{}
	link.onRead = func(id int, reg servobus.Register) (int, error) {
		return 2048, nil
	}

	cal := &ManualCalibrator{
		Link:           link,
		Joints:         []JointConfig{{ID: 1, Name: "shoulder_pan"}},
		Logger:         testLogger(),
		SampleInterval: time.Nanosecond,
		OnSample:       func([]RangeObservation) { input.finish() },
	}

	set, _, err := cal.Calibrate(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0, set[1].HomingOffset)
}

func TestManualCalibrateReportsLiveObservations(t *testing.T) {
	input := newScriptedInput()
	link := &fakeLink{}
	link.onRead = func(id int, reg servobus.Register) (int, error) {
		return 1500, nil
	}

	var last []RangeObservation
	cal := &ManualCalibrator{
		Link:           link,
		Joints:         DefaultJoints(),
		Logger:         testLogger(),
		SampleInterval: time.Nanosecond,
		OnSample: func(obs []RangeObservation) {
			last = obs
			input.finish()
		},
	}

	_, _, err := cal.Calibrate(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, last, len(DefaultJoints()))
	assert.Equal(t, "shoulder_pan", last[0].Name)
	require.NotNil(t, last[0].Current)
	assert.Equal(t, 1500, *last[0].Current)
	require.NotNil(t, last[0].Min)
	assert.Equal(t, 1500, *last[0].Min)
}

func TestManualCalibrateRejectsUnsampledJoint(t *testing.T) {
	// Joint 2 never answers. It is rejected on its own; joint 1 still
	// calibrates.
	passes := 0
	input := newScriptedInput()
	link := &fakeLink{}
	link.onRead = func(id int, reg servobus.Register) (int, error) {
		if id == 2 {
			return 0, &servobus.TxError{ID: 2, Err: errors.New("timeout")}
		}
		return 1000, nil
	}

	cal := &ManualCalibrator{
		Link: link,
		Joints: []JointConfig{
			{ID: 1, Name: "shoulder_pan"},
			{ID: 2, Name: "shoulder_lift"},
		},
		Logger:         testLogger(),
		SampleInterval: time.Nanosecond,
		OnSample: func(obs []RangeObservation) {
			passes++
			if passes == 2 {
				input.finish()
			}
		},
	}

	set, failures, err := cal.Calibrate(context.Background(), input)
	require.NoError(t, err)

	assert.Len(t, set, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].ID)
	assert.Contains(t, failures[0].Err.Error(), "insufficient samples")
}

func TestManualCalibrateDisablesTorqueFirst(t *testing.T) {
	input := newScriptedInput()
	link := &fakeLink{}
	link.onRead = func(id int, reg servobus.Register) (int, error) {
		return 2048, nil
	}

	cal := &ManualCalibrator{
		Link:           link,
		Joints:         DefaultJoints(),
		Logger:         testLogger(),
		SampleInterval: time.Nanosecond,
		OnSample:       func([]RangeObservation) { input.finish() },
	}

	_, _, err := cal.Calibrate(context.Background(), input)
	require.NoError(t, err)

	for i, joint := range DefaultJoints() {
		w := link.writes[i]
		assert.Equal(t, joint.ID, w.id)
		assert.Equal(t, servobus.RegTorqueEnable, w.reg)
		assert.Equal(t, 0, w.value)
	}
}

func TestManualCalibrateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	link := &fakeLink{}
	cal := &ManualCalibrator{
		Link:           link,
		Joints:         DefaultJoints(),
		Logger:         testLogger(),
		SampleInterval: time.Nanosecond,
	}

	_, _, err := cal.Calibrate(ctx, newScriptedInput())
	assert.ErrorIs(t, err, context.Canceled)
}
