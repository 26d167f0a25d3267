package robot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCaptureAndRemove(t *testing.T) {
	rec := NewRecorder("so100_follower", []string{"shoulder_pan", "gripper"}, "calibration.json")

	wp1 := rec.Capture([]int{1000, 2000})
	wp2 := rec.Capture([]int{1100, 2100})
	assert.Equal(t, 1, wp1.ID)
	assert.Equal(t, 2, wp2.ID)
	assert.Equal(t, 2, rec.Count())

	// Captured positions are snapshots, not aliases.
	src := []int{500, 600}
	wp3 := rec.Capture(src)
	src[0] = 999
	assert.Equal(t, []int{500, 600}, wp3.Positions)

	removed, ok := rec.RemoveLast()
	require.True(t, ok)
	assert.Equal(t, 3, removed.ID)
	assert.Equal(t, 2, rec.Count())

	// The freed id is reused by the next capture.
	wp4 := rec.Capture([]int{1, 2})
	assert.Equal(t, 3, wp4.ID)
}

func TestRecorderRemoveLastEmpty(t *testing.T) {
	rec := NewRecorder("so100_follower", nil, "")
	_, ok := rec.RemoveLast()
	assert.False(t, ok)
}

func TestRecorderSaveRequiresWaypoints(t *testing.T) {
	rec := NewRecorder("so100_follower", nil, "")
	err := rec.Save(filepath.Join(t.TempDir(), "waypoints.json"))
	assert.Error(t, err)
}

func TestWaypointFileRoundTrip(t *testing.T) {
	names := []string{"shoulder_pan", "shoulder_lift"}
	rec := NewRecorder("so100_follower", names, "calibration.json")
	rec.Capture([]int{1000, 2000})
	rec.Capture([]int{1500, 2500})

	path := filepath.Join(t.TempDir(), "waypoints_test.json")
	require.NoError(t, rec.Save(path))

	wf, err := LoadWaypointFile(path)
	require.NoError(t, err)

	assert.Equal(t, "so100_follower", wf.Metadata.RobotType)
	assert.Equal(t, 2, wf.Metadata.TotalWaypoints)
	assert.Equal(t, names, wf.Metadata.JointNames)
	assert.Equal(t, "calibration.json", wf.Metadata.CalibrationFile)
	assert.False(t, wf.Metadata.CreatedAt.IsZero())

	require.Len(t, wf.Waypoints, 2)
	assert.Equal(t, []int{1500, 2500}, wf.Waypoints[1].Positions)
}

func TestLoadWaypointFileRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.json")
	body := `{"metadata": {"robot_type": "so100_follower"}, "waypoints": []}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadWaypointFile(path)
	assert.Error(t, err)
}

func TestWaypointFileValidateCardinality(t *testing.T) {
	wf := &WaypointFile{
		Waypoints: []Waypoint{
			{ID: 1, Positions: []int{1000, 2000}},
			{ID: 2, Positions: []int{1000}},
		},
	}

	err := wf.Validate(twoJointSet())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "waypoint 2")

	wf.Waypoints[1].Positions = []int{1000, 2000}
	assert.NoError(t, wf.Validate(twoJointSet()))
}

func TestListWaypointFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"waypoints_20260829_120000.json",
		"demo_waypoint_set.json",
		"calibration.json",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	files, err := ListWaypointFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "demo_waypoint_set.json"), files[0])
	assert.Equal(t, filepath.Join(dir, "waypoints_20260829_120000.json"), files[1])
}
