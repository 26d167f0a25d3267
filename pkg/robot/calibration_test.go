package robot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	cal := JointCalibration{RangeMin: 1000, RangeMax: 3000}

	v, clamped := cal.Clamp(2000)
	assert.Equal(t, 2000, v)
	assert.False(t, clamped)

	v, clamped = cal.Clamp(3500)
	assert.Equal(t, 3000, v)
	assert.True(t, clamped)

	v, clamped = cal.Clamp(500)
	assert.Equal(t, 1000, v)
	assert.True(t, clamped)

	// Bounds themselves are valid targets.
	v, clamped = cal.Clamp(1000)
	assert.Equal(t, 1000, v)
	assert.False(t, clamped)
}

func TestRangePercent(t *testing.T) {
	cal := JointCalibration{RangeMin: 1000, RangeMax: 3000}

	assert.Equal(t, 0.0, cal.RangePercent(1000))
	assert.Equal(t, 50.0, cal.RangePercent(2000))
	assert.Equal(t, 100.0, cal.RangePercent(3000))

	// Degenerate range must not divide by zero.
	flat := JointCalibration{RangeMin: 500, RangeMax: 500}
	assert.Equal(t, 0.0, flat.RangePercent(500))
}

func TestCalibrationSetIDsAscending(t *testing.T) {
	set := CalibrationSet{
		5: {ID: 5, Name: "wrist_roll"},
		1: {ID: 1, Name: "shoulder_pan"},
		3: {ID: 3, Name: "elbow_flex"},
	}
	assert.Equal(t, []int{1, 3, 5}, set.IDs())
	assert.Equal(t, []string{"shoulder_pan", "elbow_flex", "wrist_roll"}, set.Names())
}

func TestCalibrationRoundTrip(t *testing.T) {
	set := CalibrationSet{
		1: {ID: 1, Name: "shoulder_pan", HomingOffset: -518, RangeMin: 490, RangeMax: 570},
		2: {ID: 2, Name: "shoulder_lift", DriveMode: 1, RangeMin: 100, RangeMax: 3200},
	}

	path := filepath.Join(t.TempDir(), "calibration.json")
	require.NoError(t, set.Save(path))

	loaded, err := LoadCalibration(path)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	// The range size is derived, never persisted.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "range_size")
	assert.Contains(t, string(data), "shoulder_pan")
}

func TestLoadCalibrationRejectsInvertedRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	body := `{"gripper": {"id": 6, "range_min": 3000, "range_max": 100}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadCalibration(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "range_min")
}

func TestLoadCalibrationMissingFile(t *testing.T) {
	_, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
