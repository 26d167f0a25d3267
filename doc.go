// Package soarm records and replays waypoint sequences on SO-ARM serial
// bus servo arms.
//
// The arm is calibrated once, either automatically (each joint probes its
// own mechanical limits) or manually (you move the arm through its range
// by hand). Waypoints are then captured by posing the torque-free arm and
// played back as clamped, sequenced moves.
//
// # Installation
//
//	go install github.com/soarmkit/soarm/cmd/soarm@latest
//
// # Usage
//
// Calibrate the arm first:
//
//	soarm calibrate
//
// Record a waypoint sequence by hand:
//
//	soarm record
//
// Play it back, optionally selecting, reversing, or looping a range:
//
//	soarm play waypoints_20260829_120000.json --loop 3 --reverse
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/soarm: CLI with calibrate, record, play, and status commands
//   - pkg/robot: Calibration, motion execution, and waypoint sequencing
//   - pkg/servobus: Register-level serial bus transport for the servos
package soarm
