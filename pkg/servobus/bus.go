// Package servobus implements the Feetech SCS serial bus protocol used by
// the arm's servos: synchronous register reads and writes addressed to one
// joint at a time over a shared port.
//
// The layer is deliberately thin. It reports transmission failures and
// device faults distinctly and never retries; retry policy belongs to
// callers, where a fault can be a signal rather than an error.
package servobus

import (
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the factory baud rate of STS3215 servos.
	DefaultBaudRate = 1_000_000
	// DefaultTimeout bounds each reply read.
	DefaultTimeout = 100 * time.Millisecond
)

// Config holds bus connection parameters.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// Bus is a synchronous request/response transport to the servos. Exactly
// one Bus accesses a port; every call blocks until its reply or timeout.
type Bus struct {
	port    serial.Port
	name    string
	timeout time.Duration
}

// Open opens the serial port. Failures here are fatal to the session.
func Open(cfg Config) (*Bus, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, &CommError{Port: cfg.Port, Err: err}
	}
	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, &CommError{Port: cfg.Port, Err: err}
	}

	return &Bus{port: port, name: cfg.Port, timeout: cfg.Timeout}, nil
}

// Close closes the underlying port.
func (b *Bus) Close() error {
	return b.port.Close()
}

// Port returns the serial device path the bus was opened on.
func (b *Bus) Port() string { return b.name }

// Ping verifies a servo responds on the bus.
func (b *Bus) Ping(id int) error {
	_, err := b.transact(id, instPing, nil)
	return err
}

// WriteRegister writes value to a control table register of one servo.
// Writing RegGoalPosition moves the physical actuator; it is the only
// side-effecting primitive in the system.
func (b *Bus) WriteRegister(id int, reg Register, value int) error {
	params := make([]byte, 0, 3)
	params = append(params, reg.Addr, byte(value&0xFF))
	if reg.Size == 2 {
		params = append(params, byte((value>>8)&0xFF))
	}
	_, err := b.transact(id, instWrite, params)
	return err
}

// ReadRegister reads a control table register of one servo.
func (b *Bus) ReadRegister(id int, reg Register) (int, error) {
	rep, err := b.transact(id, instRead, []byte{reg.Addr, byte(reg.Size)})
	if err != nil {
		return 0, err
	}
	if len(rep.params) < reg.Size {
		return 0, &TxError{ID: id, Err: errEmptyRegister}
	}
	value := int(rep.params[0])
	if reg.Size == 2 {
		value |= int(rep.params[1]) << 8
	}
	return value, nil
}

func (b *Bus) transact(id int, instruction byte, params []byte) (reply, error) {
	if err := b.port.ResetInputBuffer(); err != nil {
		return reply{}, &TxError{ID: id, Err: err}
	}

	frame := buildFrame(id, instruction, params)
	if _, err := b.port.Write(frame); err != nil {
		return reply{}, &TxError{ID: id, Err: errors.Wrap(err, "write frame")}
	}

	rep, err := b.readReply(id)
	if err != nil {
		return reply{}, err
	}
	if rep.id != id {
		return reply{}, &TxError{ID: id, Err: errWrongReplyID}
	}
	if rep.status != 0 {
		return rep, &FaultError{ID: id, Code: rep.status}
	}
	return rep, nil
}

func (b *Bus) readReply(id int) (reply, error) {
	buf := make([]byte, 0, 64)
	chunk := make([]byte, 64)
	deadline := time.Now().Add(b.timeout)

	for {
		n, err := b.port.Read(chunk)
		if err != nil {
			return reply{}, &TxError{ID: id, Err: errors.Wrap(err, "read reply")}
		}
		buf = append(buf, chunk[:n]...)

		rep, perr := parseReply(buf)
		switch perr {
		case nil:
			return rep, nil
		case errShortReply, errNoHeader, errBadLength:
			// keep reading until the deadline
		default:
			return reply{}, &TxError{ID: id, Err: perr}
		}

		if n == 0 || time.Now().After(deadline) {
			return reply{}, &TxError{ID: id, Err: errShortReply}
		}
	}
}
