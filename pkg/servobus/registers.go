package servobus

// Register identifies an entry in the SCS/STS control table.
type Register struct {
	Addr byte
	Size int // bytes, 1 or 2
}

// Control table entries used by the arm. Two-byte values are little-endian.
var (
	RegTorqueEnable       = Register{Addr: 40, Size: 1}
	RegGoalAcceleration   = Register{Addr: 41, Size: 1}
	RegGoalPosition       = Register{Addr: 42, Size: 2}
	RegGoalSpeed          = Register{Addr: 46, Size: 2}
	RegPresentPosition    = Register{Addr: 56, Size: 2}
	RegPresentSpeed       = Register{Addr: 58, Size: 2}
	RegPresentLoad        = Register{Addr: 60, Size: 2}
	RegPresentVoltage     = Register{Addr: 62, Size: 1}
	RegPresentTemperature = Register{Addr: 63, Size: 1}
)
