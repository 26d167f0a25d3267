package robot

import (
	"encoding/json"
	"os"
)

const DefaultSessionFile = "soarm.json"

// Session holds the persisted defaults of one arm setup: which port it is
// on and where its calibration and waypoint files live. Command-line flags
// override it; discovery fills it in.
type Session struct {
	Port         string `json:"port"`
	Calibration  string `json:"calibration"`
	WaypointsDir string `json:"waypoints_dir,omitempty"`
}

// LoadSession loads the default session file.
func LoadSession() (*Session, error) {
	return LoadSessionFrom(DefaultSessionFile)
}

// LoadSessionFrom loads a session from a specific file.
func LoadSessionFrom(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the session to the default file.
func (s *Session) Save() error {
	return s.SaveTo(DefaultSessionFile)
}

// SaveTo writes the session to a specific file.
func (s *Session) SaveTo(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SessionExists reports whether the default session file is present.
func SessionExists() bool {
	_, err := os.Stat(DefaultSessionFile)
	return err == nil
}
