package robot

import "github.com/soarmkit/soarm/pkg/servobus"

// ServoStatus is a transient snapshot of one joint's telemetry. Fields are
// nil when the corresponding read failed; the snapshot is rebuilt on every
// poll and never persisted.
type ServoStatus struct {
	Position    *int
	Speed       *int
	Load        *int
	Voltage     *float64
	Temperature *int
	Err         string
}

// ReadStatus polls one joint. A failed read leaves its field absent and
// the remaining reads still run: a transmission failure means "status
// unknown", not "abort".
func ReadStatus(link Link, id int) ServoStatus {
	var st ServoStatus

	if pos, err := link.ReadRegister(id, servobus.RegPresentPosition); err == nil {
		st.Position = &pos
	} else {
		st.Err = err.Error()
	}
	if speed, err := link.ReadRegister(id, servobus.RegPresentSpeed); err == nil {
		speed = signMagnitude(speed, 15)
		st.Speed = &speed
	}
	if load, err := link.ReadRegister(id, servobus.RegPresentLoad); err == nil {
		load = signMagnitude(load, 10)
		st.Load = &load
	}
	if raw, err := link.ReadRegister(id, servobus.RegPresentVoltage); err == nil {
		volts := float64(raw) / 10
		st.Voltage = &volts
	}
	if temp, err := link.ReadRegister(id, servobus.RegPresentTemperature); err == nil {
		st.Temperature = &temp
	}

	return st
}

// signMagnitude decodes the servo's sign-magnitude register encoding,
// where the given bit carries the sign.
func signMagnitude(value, signBit int) int {
	if value&(1<<signBit) != 0 {
		return -(value &^ (1 << signBit))
	}
	return value
}
