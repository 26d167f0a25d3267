package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/soarmkit/soarm/pkg/robot"
)

type RecordCommand struct {
	ConnectionOptions
	Output string `short:"o" long:"output" description:"Waypoint file to write (default: waypoints_<timestamp>.json)"`
}

func (c *RecordCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Waypoint Recording"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := c.openRobot(ctx)
	if err != nil {
		return err
	}
	defer r.Disconnect()

	if err := requireCalibration(r); err != nil {
		return err
	}

	// Torque off so the user can pose the arm between captures.
	if err := r.DisableTorque(); err != nil {
		return err
	}

	rec := robot.NewRecorder(r.RobotType(), r.Calibration().Names(), r.CalibrationFile())

	fmt.Println("Move the arm to a pose and press Enter to capture it.")
	fmt.Println()

	model := recordModel{robot: r, rec: rec}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return err
	}
	rm := final.(recordModel)

	if rec.Count() == 0 {
		fmt.Println("No waypoints recorded.")
		return nil
	}

	// An interrupt mid-session still offers to keep what was captured.
	if rm.interrupted {
		save := true
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Save partial recording (%d waypoints)?", rec.Count())).
					Value(&save),
			),
		)
		if err := form.Run(); err != nil || !save {
			fmt.Println("Recording discarded.")
			return nil
		}
	}

	path := c.Output
	if path == "" {
		path = fmt.Sprintf("waypoints_%s.json", time.Now().Format("20060102_150405"))
	}
	if err := rec.Save(path); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render(fmt.Sprintf("Saved %d waypoints to %s", rec.Count(), path)))
	fmt.Println("Play them back with: " + headerStyle.Render("soarm play "+path))
	return nil
}

// Recording TUI: a keystroke loop with a live pose readout. The current
// joint positions are polled on a timer; a capture stores the latest poll.
type recordModel struct {
	robot *robot.Robot
	rec   *robot.Recorder

	live        []int            // latest polled positions
	last        []robot.Waypoint // most recent captures, newest last
	status      string
	quitting    bool
	interrupted bool
}

const recentShown = 5

type recordTickMsg time.Time

func recordTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return recordTickMsg(t)
	})
}

func (m recordModel) Init() tea.Cmd { return recordTick() }

func (m recordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recordTickMsg:
		if pos, err := m.robot.CurrentPositions(); err == nil {
			m.live = pos
		}
		return m, recordTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", " ":
			if m.live == nil {
				pos, err := m.robot.CurrentPositions()
				if err != nil {
					m.status = "Cannot read positions: " + err.Error()
					return m, nil
				}
				m.live = pos
			}
			wp := m.rec.Capture(m.live)
			m.last = append(m.last, wp)
			if len(m.last) > recentShown {
				m.last = m.last[len(m.last)-recentShown:]
			}
			m.status = fmt.Sprintf("Captured waypoint %d", wp.ID)

		case "d", "backspace":
			if wp, ok := m.rec.RemoveLast(); ok {
				if n := len(m.last); n > 0 {
					m.last = m.last[:n-1]
				}
				m.status = fmt.Sprintf("Removed waypoint %d", wp.ID)
			} else {
				m.status = "Nothing to remove"
			}

		case "q":
			m.quitting = true
			return m, tea.Quit

		case "ctrl+c":
			m.quitting = true
			m.interrupted = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m recordModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(subHeaderStyle.Render(fmt.Sprintf("Waypoints recorded: %d", m.rec.Count())))
	sb.WriteString("\n\n")

	if m.live != nil {
		sb.WriteString(fmt.Sprintf("  pose %v\n\n", m.live))
	}

	for _, wp := range m.last {
		sb.WriteString(fmt.Sprintf("  %3d  %v\n", wp.ID, wp.Positions))
	}
	if len(m.last) > 0 {
		sb.WriteString("\n")
	}

	if m.status != "" {
		sb.WriteString(m.status)
		sb.WriteString("\n\n")
	}

	sb.WriteString(dimStyle.Render("Enter: capture  d: remove last  q: finish"))
	return sb.String()
}
