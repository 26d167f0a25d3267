package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jessevdk/go-flags"
)

type Options struct {
	Calibrate CalibrateCommand `command:"calibrate" alias:"cal" description:"Calibrate joint ranges (automatic or manual)"`
	Record    RecordCommand    `command:"record" alias:"rec" description:"Record waypoints by moving the arm by hand"`
	Play      PlayCommand      `command:"play" description:"Play back a recorded waypoint sequence"`
	Status    StatusCommand    `command:"status" description:"Show live joint telemetry"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func main() {
	parser.LongDescription = "soarm - waypoint recorder and player for SO-ARM serial bus arms"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
