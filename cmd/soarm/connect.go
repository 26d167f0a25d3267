package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/soarmkit/soarm/pkg/robot"
)

const defaultCalibrationFile = "calibration.json"

// ConnectionOptions are the flags every hardware-facing command shares.
type ConnectionOptions struct {
	Port        string `short:"p" long:"port" description:"Serial port of the arm (default: auto-discover)"`
	Calibration string `short:"c" long:"calibration" description:"Calibration file (default: calibration.json)"`
	Verbose     bool   `short:"v" long:"verbose" description:"Enable debug logging"`
}

func (o *ConnectionOptions) logger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if o.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// openRobot resolves the port and calibration path, preferring flags over
// the session file over bus discovery, and connects. Successful discovery
// refreshes the session file so the scan runs once.
func (o *ConnectionOptions) openRobot(ctx context.Context) (*robot.Robot, error) {
	logger := o.logger()

	port := o.Port

	session, sessionErr := robot.LoadSession()
	if sessionErr != nil {
		session = nil
	}
	if port == "" && session != nil {
		port = session.Port
	}
	calibration := resolveCalibration(o.Calibration, session)

	if port == "" {
		fmt.Println("Scanning for arms...")
		ports, err := robot.FindArms(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "scan serial ports")
		}
		if len(ports) == 0 {
			return nil, errors.New("no arm found; connect the arm or pass --port")
		}
		port = ports[0]
		fmt.Printf("Found arm on %s\n", port)

		s := robot.Session{Port: port, Calibration: calibration}
		if err := s.Save(); err != nil {
			logger.Warn("could not save session file", "err", err)
		}
	}

	r := robot.New(robot.Config{
		Port:            port,
		CalibrationFile: calibration,
		Logger:          logger,
	})
	if err := r.Connect(); err != nil {
		return nil, err
	}
	return r, nil
}

// resolveCalibration picks the calibration path: an explicit flag always
// wins, then the session file, then the stock name.
func resolveCalibration(flagValue string, session *robot.Session) string {
	if flagValue != "" {
		return flagValue
	}
	if session != nil && session.Calibration != "" {
		return session.Calibration
	}
	return defaultCalibrationFile
}

// requireCalibration fails a command early when the arm has no range
// model to move within.
func requireCalibration(r *robot.Robot) error {
	if !r.HasCalibration() {
		return errors.Errorf("no calibration data in %s; run 'soarm calibrate' first",
			r.CalibrationFile())
	}
	return nil
}
