package robot

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// JointCalibration holds the discovered safe range for a single joint.
// The range size is always derived from the bounds, never stored.
type JointCalibration struct {
	ID           int    `json:"id"`
	Name         string `json:"-"`
	DriveMode    int    `json:"drive_mode"`
	HomingOffset int    `json:"homing_offset"`
	RangeMin     int    `json:"range_min"`
	RangeMax     int    `json:"range_max"`
}

// RangeSize returns the span of the safe range.
func (c JointCalibration) RangeSize() int {
	return c.RangeMax - c.RangeMin
}

// Clamp bounds target into [RangeMin, RangeMax] and reports whether the
// value had to be corrected.
func (c JointCalibration) Clamp(target int) (int, bool) {
	if target < c.RangeMin {
		return c.RangeMin, true
	}
	if target > c.RangeMax {
		return c.RangeMax, true
	}
	return target, false
}

// RangePercent expresses a position as a percentage of the joint's range.
func (c JointCalibration) RangePercent(pos int) float64 {
	size := c.RangeSize()
	if size == 0 {
		return 0
	}
	return float64(pos-c.RangeMin) / float64(size) * 100
}

// CalibrationSet is the per-joint range model, keyed by joint id. It is
// produced wholesale by a calibration run and read-only afterwards; its
// size is the single source of truth for the expected joint count.
type CalibrationSet map[int]JointCalibration

// IDs returns the joint ids in ascending order. Movement commands iterate
// in this order; it is part of the observable contract.
func (s CalibrationSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Names returns the joint names in ascending-id order.
func (s CalibrationSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, id := range s.IDs() {
		names = append(names, s[id].Name)
	}
	return names
}

// LoadCalibration reads a calibration file: one record per joint, keyed by
// joint name. Entries violating rangeMin <= rangeMax are rejected.
func LoadCalibration(path string) (CalibrationSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read calibration file")
	}

	var raw map[string]JointCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse calibration file")
	}

	set := make(CalibrationSet, len(raw))
	for name, cal := range raw {
		if cal.RangeMin > cal.RangeMax {
			return nil, errors.Errorf("joint %s: range_min %d exceeds range_max %d",
				name, cal.RangeMin, cal.RangeMax)
		}
		cal.Name = name
		set[cal.ID] = cal
	}
	return set, nil
}

// Save writes the set keyed by joint name.
func (s CalibrationSet) Save(path string) error {
	out := make(map[string]JointCalibration, len(s))
	for _, cal := range s {
		out[cal.Name] = cal
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode calibration")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write calibration file")
	}
	return nil
}
