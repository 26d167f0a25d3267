package robot

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/soarmkit/soarm/pkg/servobus"
)

// DefaultRobotType labels waypoint files recorded by this arm.
const DefaultRobotType = "so100_follower"

// Config holds session parameters for one arm.
type Config struct {
	Port            string
	BaudRate        int
	CalibrationFile string
	RobotType       string
	Logger          *log.Logger
}

// Robot is the session facade over one arm: a single bus connection, the
// current calibration set, and the calibration/motion operations exposed
// to the CLI. The calibration set is owned here and passed by reference
// into the engines and the executor; there is no process-wide state.
type Robot struct {
	cfg    Config
	logger *log.Logger

	bus  *servobus.Bus
	link Link
	cal  CalibrationSet
}

// New creates an unconnected session. An existing calibration file is
// loaded eagerly so HasCalibration answers before connecting.
func New(cfg Config) *Robot {
	if cfg.RobotType == "" {
		cfg.RobotType = DefaultRobotType
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	r := &Robot{cfg: cfg, logger: cfg.Logger}
	if cfg.CalibrationFile != "" {
		if cal, err := LoadCalibration(cfg.CalibrationFile); err == nil {
			r.cal = cal
		}
	}
	return r
}

// Connect opens the servo bus. A failure here is fatal to the session.
func (r *Robot) Connect() error {
	bus, err := servobus.Open(servobus.Config{
		Port:     r.cfg.Port,
		BaudRate: r.cfg.BaudRate,
	})
	if err != nil {
		return err
	}
	r.bus = bus
	r.link = bus
	r.logger.Info("connected", "port", r.cfg.Port)

	for _, joint := range r.jointConfigs() {
		if err := bus.Ping(joint.ID); err != nil {
			r.logger.Warn("joint not responding", "joint", joint.Name, "id", joint.ID, "err", err)
		}
	}
	return nil
}

// Disconnect disables torque on every joint and closes the bus. Torque
// failures are ignored; the arm may already be unpowered.
func (r *Robot) Disconnect() {
	if r.bus == nil {
		return
	}
	for _, joint := range r.jointConfigs() {
		_ = r.link.WriteRegister(joint.ID, servobus.RegTorqueEnable, 0)
	}
	_ = r.bus.Close()
	r.bus = nil
	r.link = nil
	r.logger.Info("disconnected")
}

// Connected reports whether the bus is open.
func (r *Robot) Connected() bool { return r.bus != nil }

// HasCalibration reports whether a calibration set is loaded.
func (r *Robot) HasCalibration() bool { return len(r.cal) > 0 }

// Calibration returns the loaded set. Read-only to callers.
func (r *Robot) Calibration() CalibrationSet { return r.cal }

// RobotType returns the configured arm type label.
func (r *Robot) RobotType() string { return r.cfg.RobotType }

// CalibrationFile returns the configured calibration path.
func (r *Robot) CalibrationFile() string { return r.cfg.CalibrationFile }

// LoadCalibration re-reads the calibration file.
func (r *Robot) LoadCalibration() error {
	cal, err := LoadCalibration(r.cfg.CalibrationFile)
	if err != nil {
		return err
	}
	r.cal = cal
	r.logger.Info("calibration loaded", "joints", len(cal), "file", r.cfg.CalibrationFile)
	return nil
}

// SaveCalibration persists the current set.
func (r *Robot) SaveCalibration() error {
	if len(r.cal) == 0 {
		return errors.New("no calibration to save")
	}
	return r.cal.Save(r.cfg.CalibrationFile)
}

// jointConfigs derives the joint list from calibration when present,
// falling back to the stock layout.
func (r *Robot) jointConfigs() []JointConfig {
	if len(r.cal) == 0 {
		return DefaultJoints()
	}
	joints := make([]JointConfig, 0, len(r.cal))
	for _, id := range r.cal.IDs() {
		cal := r.cal[id]
		joints = append(joints, JointConfig{ID: id, Name: cal.Name, DriveMode: cal.DriveMode})
	}
	return joints
}

func (r *Robot) requireConnection() error {
	if r.bus == nil {
		return errors.New("not connected")
	}
	return nil
}

// AutoCalibrate probes every joint's limits and replaces the calibration
// set wholesale. The new set is persisted only when at least one joint
// calibrated; the returned failures name the joints that did not.
func (r *Robot) AutoCalibrate(ctx context.Context) ([]JointFailure, error) {
	if err := r.requireConnection(); err != nil {
		return nil, err
	}

	engine := &AutoCalibrator{Link: r.link, Joints: r.jointConfigs(), Logger: r.logger}
	set, failures, err := engine.Calibrate(ctx)
	if err != nil {
		return failures, err
	}

	r.cal = set
	if err := r.SaveCalibration(); err != nil {
		return failures, err
	}
	r.logger.Info("calibration saved", "joints", len(set), "file", r.cfg.CalibrationFile)
	return failures, nil
}

// ManualCalibrate records ranges while the user moves the arm by hand; see
// ManualCalibrator. Persistence rules match AutoCalibrate.
func (r *Robot) ManualCalibrate(ctx context.Context, input ManualInput, onSample func([]RangeObservation)) ([]JointFailure, error) {
	if err := r.requireConnection(); err != nil {
		return nil, err
	}

	engine := &ManualCalibrator{
		Link:     r.link,
		Joints:   r.jointConfigs(),
		Logger:   r.logger,
		OnSample: onSample,
	}
	set, failures, err := engine.Calibrate(ctx, input)
	if err != nil {
		return failures, err
	}

	r.cal = set
	if err := r.SaveCalibration(); err != nil {
		return failures, err
	}
	r.logger.Info("calibration saved", "joints", len(set), "file", r.cfg.CalibrationFile)
	return failures, nil
}

// Executor returns a motion executor bound to the current calibration.
func (r *Robot) Executor() *Executor {
	return &Executor{Link: r.link, Cal: r.cal, Logger: r.logger}
}

// MoveToPosition validates and issues one clamped multi-joint move.
func (r *Robot) MoveToPosition(targets []int, speed, accel int) error {
	if err := r.requireConnection(); err != nil {
		return err
	}
	if !r.HasCalibration() {
		return validationf("no calibration data available")
	}
	return r.Executor().MoveToPosition(targets, speed, accel)
}

// ExecuteWaypoints runs a waypoint position sequence with a fixed dwell.
func (r *Robot) ExecuteWaypoints(ctx context.Context, waypoints [][]int, speed, accel int, wait time.Duration) error {
	if err := r.requireConnection(); err != nil {
		return err
	}
	if !r.HasCalibration() {
		return validationf("no calibration data available")
	}
	return r.Executor().ExecuteWaypoints(ctx, waypoints, speed, accel, wait)
}

// CurrentPositions reads all joints in ascending-id order.
func (r *Robot) CurrentPositions() ([]int, error) {
	if err := r.requireConnection(); err != nil {
		return nil, err
	}
	return r.Executor().CurrentPositions(), nil
}

// DisableTorque releases every joint for manual positioning.
func (r *Robot) DisableTorque() error {
	if err := r.requireConnection(); err != nil {
		return err
	}
	for _, joint := range r.jointConfigs() {
		if err := r.link.WriteRegister(joint.ID, servobus.RegTorqueEnable, 0); err != nil {
			r.logger.Warn("joint may not be responding", "joint", joint.Name, "err", err)
		}
	}
	return nil
}

// JointStatus pairs a joint's calibration with a live telemetry snapshot.
type JointStatus struct {
	Cal    JointCalibration
	Status ServoStatus
}

// Status polls every calibrated joint.
func (r *Robot) Status() ([]JointStatus, error) {
	if err := r.requireConnection(); err != nil {
		return nil, err
	}
	statuses := make([]JointStatus, 0, len(r.cal))
	for _, id := range r.cal.IDs() {
		statuses = append(statuses, JointStatus{
			Cal:    r.cal[id],
			Status: ReadStatus(r.link, id),
		})
	}
	return statuses, nil
}
