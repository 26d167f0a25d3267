package robot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Waypoint is one recorded snapshot of all joints' target positions.
// Waypoints are immutable once appended; ids are 1-based and monotonic
// within a file.
type Waypoint struct {
	ID         int       `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Positions  []int     `json:"positions"`
	JointNames []string  `json:"joint_names"`
}

// Metadata describes a waypoint file as a whole.
type Metadata struct {
	RobotType       string    `json:"robot_type"`
	CreatedAt       time.Time `json:"created_at"`
	TotalWaypoints  int       `json:"total_waypoints"`
	JointNames      []string  `json:"joint_names"`
	CalibrationFile string    `json:"calibration_file"`
}

// WaypointFile is the persisted form of a recording session: written once
// when recording ends, read wholesale at playback start, never mutated in
// place.
type WaypointFile struct {
	Metadata  Metadata   `json:"metadata"`
	Waypoints []Waypoint `json:"waypoints"`
}

// LoadWaypointFile reads and decodes a waypoint file.
func LoadWaypointFile(path string) (*WaypointFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read waypoint file")
	}
	var wf WaypointFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, errors.Wrap(err, "parse waypoint file")
	}
	if len(wf.Waypoints) == 0 {
		return nil, errors.New("waypoint file contains no waypoints")
	}
	return &wf, nil
}

// Validate checks every waypoint's cardinality against the calibration set
// the arm currently carries. Runs at playback time; recording only needs a
// live calibration.
func (f *WaypointFile) Validate(cal CalibrationSet) error {
	expected := len(cal)
	for i, wp := range f.Waypoints {
		if len(wp.Positions) != expected {
			return validationf("waypoint %d has %d positions, expected %d",
				i+1, len(wp.Positions), expected)
		}
	}
	return nil
}

// Save writes the file with refreshed metadata counts.
func (f *WaypointFile) Save(path string) error {
	f.Metadata.TotalWaypoints = len(f.Waypoints)
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode waypoints")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write waypoint file")
	}
	return nil
}

// Recorder accumulates waypoints during a recording session. The only
// permitted mutation besides append is removing the most recent waypoint.
type Recorder struct {
	file   WaypointFile
	nextID int
}

// NewRecorder starts an empty session. jointNames is the joint-name
// snapshot stored with every waypoint; calibrationRef names the
// calibration file the positions were recorded under.
func NewRecorder(robotType string, jointNames []string, calibrationRef string) *Recorder {
	return &Recorder{
		file: WaypointFile{
			Metadata: Metadata{
				RobotType:       robotType,
				JointNames:      jointNames,
				CalibrationFile: calibrationRef,
			},
		},
		nextID: 1,
	}
}

// Capture appends a waypoint for the given positions.
func (r *Recorder) Capture(positions []int) Waypoint {
	wp := Waypoint{
		ID:         r.nextID,
		Timestamp:  time.Now(),
		Positions:  append([]int(nil), positions...),
		JointNames: r.file.Metadata.JointNames,
	}
	r.nextID++
	r.file.Waypoints = append(r.file.Waypoints, wp)
	return wp
}

// RemoveLast drops the most recently captured waypoint.
func (r *Recorder) RemoveLast() (Waypoint, bool) {
	n := len(r.file.Waypoints)
	if n == 0 {
		return Waypoint{}, false
	}
	wp := r.file.Waypoints[n-1]
	r.file.Waypoints = r.file.Waypoints[:n-1]
	r.nextID = wp.ID
	return wp, true
}

// Count returns the number of recorded waypoints.
func (r *Recorder) Count() int { return len(r.file.Waypoints) }

// Waypoints returns the recorded waypoints in capture order.
func (r *Recorder) Waypoints() []Waypoint { return r.file.Waypoints }

// Save stamps the session and writes it out.
func (r *Recorder) Save(path string) error {
	if len(r.file.Waypoints) == 0 {
		return errors.New("no waypoints to save")
	}
	r.file.Metadata.CreatedAt = time.Now()
	return r.file.Save(path)
}

// ListWaypointFiles returns the waypoint files in dir, sorted by name.
func ListWaypointFiles(dir string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range []string{"waypoints_*.json", "*waypoint*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrap(err, "list waypoint files")
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
