package robot

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/soarmkit/soarm/pkg/servobus"
)

// fakeLink scripts register traffic for the calibration and motion tests.
// Writes are recorded in order; behavior hooks override the defaults of
// accepting every write and returning 0 for every read.
type fakeLink struct {
	writes []writeOp

	onWrite func(id int, reg servobus.Register, value int) error
	onRead  func(id int, reg servobus.Register) (int, error)
}

type writeOp struct {
	id    int
	reg   servobus.Register
	value int
}

func (f *fakeLink) WriteRegister(id int, reg servobus.Register, value int) error {
	if f.onWrite != nil {
		if err := f.onWrite(id, reg, value); err != nil {
			return err
		}
	}
	f.writes = append(f.writes, writeOp{id: id, reg: reg, value: value})
	return nil
}

func (f *fakeLink) ReadRegister(id int, reg servobus.Register) (int, error) {
	if f.onRead != nil {
		return f.onRead(id, reg)
	}
	return 0, nil
}

// goalWrites returns the goal position values written for one joint.
func (f *fakeLink) goalWrites(id int) []int {
	var goals []int
	for _, w := range f.writes {
		if w.id == id && w.reg == servobus.RegGoalPosition {
			goals = append(goals, w.value)
		}
	}
	return goals
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}
