// Package robot owns the arm's range model and every hardware-facing
// movement decision: calibration (automatic limit probing or manual range
// observation), clamped single-waypoint moves, and waypoint sequencing.
package robot

import "github.com/soarmkit/soarm/pkg/servobus"

// Position domain of the servos. The goal register accepts signed
// multi-turn values, so the addressable domain is wider than one turn.
const (
	MinPosition = -4095
	MaxPosition = 4095

	// CenterPosition is the theoretical neutral value of a joint;
	// homing offsets are expressed relative to it.
	CenterPosition = 2048
)

// DefaultBaudRate is the stock serial speed of the bus.
const DefaultBaudRate = 1_000_000

// Link is the joint-addressed register transport the core drives.
// *servobus.Bus implements it; tests substitute fakes.
type Link interface {
	WriteRegister(id int, reg servobus.Register, value int) error
	ReadRegister(id int, reg servobus.Register) (int, error)
}

// JointConfig names a joint on the bus before it has calibration data.
type JointConfig struct {
	ID        int
	Name      string
	DriveMode int
}

// DefaultJoints is the stock six-servo arm layout, ids ascending.
func DefaultJoints() []JointConfig {
	return []JointConfig{
		{ID: 1, Name: "shoulder_pan"},
		{ID: 2, Name: "shoulder_lift"},
		{ID: 3, Name: "elbow_flex"},
		{ID: 4, Name: "wrist_flex"},
		{ID: 5, Name: "wrist_roll"},
		{ID: 6, Name: "gripper"},
	}
}
