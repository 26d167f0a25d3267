package servobus

import (
	"fmt"
	"strings"
)

// CommError indicates the bus itself could not be opened or configured.
// No joint operations are attempted after one of these.
type CommError struct {
	Port string
	Err  error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("servo bus %s: %v", e.Port, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }

// TxError indicates a transmission failure on a single request: the reply
// never arrived or arrived garbled. The servo's state is unknown.
type TxError struct {
	ID  int
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("servo %d: transmission failed: %v", e.ID, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// Servo status byte fault bits, per the SCS control table.
const (
	FaultVoltage     = 0x01
	FaultAngleSensor = 0x02
	FaultOverheat    = 0x04
	FaultOvercurrent = 0x08
	FaultOverload    = 0x20
)

var faultNames = []struct {
	bit  byte
	name string
}{
	{FaultVoltage, "voltage"},
	{FaultAngleSensor, "angle sensor"},
	{FaultOverheat, "overheat"},
	{FaultOvercurrent, "overcurrent"},
	{FaultOverload, "overload"},
}

// FaultError is a device-reported fault: the servo replied, but flagged an
// error condition in the status byte. During calibration the overload bit
// is the boundary-detection signal rather than a failure.
type FaultError struct {
	ID   int
	Code byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("servo %d: device fault: %s", e.ID, faultString(e.Code))
}

// Overload reports whether the fault includes the overload bit.
func (e *FaultError) Overload() bool { return e.Code&FaultOverload != 0 }

func faultString(code byte) string {
	var names []string
	for _, f := range faultNames {
		if code&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("code 0x%02x", code)
	}
	return strings.Join(names, ", ")
}
