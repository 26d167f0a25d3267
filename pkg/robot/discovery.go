package robot

import (
	"context"
	"strings"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"
)

// FindArms scans every serial port for a six-servo arm with IDs 1 through 6
// and returns the matching port names. Ports that cannot be opened or hold
// something else are skipped silently.
func FindArms(ctx context.Context) ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}

	var found []string
	for _, port := range ports {
		if !isCandidatePort(port) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if probePort(ctx, port) {
			found = append(found, port)
		}
	}
	return found, nil
}

// isCandidatePort matches the serial device names USB servo adapters show
// up under, and skips macOS Bluetooth ports.
func isCandidatePort(port string) bool {
	if strings.Contains(port, "Bluetooth") {
		return false
	}
	// Linux
	if strings.HasPrefix(port, "/dev/ttyUSB") || strings.HasPrefix(port, "/dev/ttyACM") {
		return true
	}
	// macOS
	for _, prefix := range []string{"/dev/tty.usb", "/dev/cu.usb"} {
		if strings.HasPrefix(port, prefix) {
			return true
		}
	}
	// Windows
	return strings.HasPrefix(port, "COM")
}

func probePort(ctx context.Context, port string) bool {
	scanCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: DefaultBaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return false
	}
	defer bus.Close()

	servos, err := bus.Scan(scanCtx, 1, 6)
	if err != nil {
		return false
	}
	return isArm(servos)
}

// isArm checks for exactly six servos with IDs 1-6.
func isArm(servos []feetech.FoundServo) bool {
	if len(servos) != 6 {
		return false
	}
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= 6; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}
