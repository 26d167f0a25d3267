package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/soarmkit/soarm/pkg/robot"
)

// Distinct trace colors, indexed by joint order on the bus.
var jointColors = []string{
	"196", // red
	"208", // orange
	"226", // yellow
	"46",  // green
	"51",  // cyan
	"201", // magenta
}

func jointColor(i int) string {
	return jointColors[i%len(jointColors)]
}

type CalibrateCommand struct {
	ConnectionOptions
	Mode string `short:"m" long:"mode" choice:"auto" choice:"manual" description:"Calibration strategy (default: ask)"`
}

func (c *CalibrateCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Arm Calibration"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	mode := c.Mode
	if mode == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Calibration strategy").
					Options(
						huh.NewOption("Automatic (the arm probes its own limits)", "auto"),
						huh.NewOption("Manual (you move the arm through its range)", "manual"),
					).
					Value(&mode),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := c.openRobot(ctx)
	if err != nil {
		return err
	}
	defer r.Disconnect()

	var failures []robot.JointFailure
	switch mode {
	case "auto":
		failures, err = c.runAuto(ctx, r)
	case "manual":
		failures, err = c.runManual(ctx, r)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(renderCalibrationTable(r.Calibration()))
	for _, f := range failures {
		fmt.Println(warnStyle.Render("  not calibrated: " + f.String()))
	}
	fmt.Println()
	fmt.Println(successStyle.Render("Calibration saved to " + r.CalibrationFile()))
	return nil
}

func (c *CalibrateCommand) runAuto(ctx context.Context, r *robot.Robot) ([]robot.JointFailure, error) {
	fmt.Println(warnStyle.Render("The arm will move by itself until each joint reaches its limits."))
	fmt.Println("Clear the workspace around the arm before continuing.")
	fmt.Println()

	var proceed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Start automatic calibration?").
				Value(&proceed),
		),
	)
	if err := form.Run(); err != nil || !proceed {
		fmt.Println()
		os.Exit(0)
	}

	return r.AutoCalibrate(ctx)
}

func (c *CalibrateCommand) runManual(ctx context.Context, r *robot.Robot) ([]robot.JointFailure, error) {
	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Torque is off. Move each joint to its minimum AND maximum positions.")
	fmt.Println()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := &terminalInput{done: make(chan struct{})}
	p := tea.NewProgram(newRangeModel())

	type calResult struct {
		failures []robot.JointFailure
		err      error
	}
	resCh := make(chan calResult, 1)
	go func() {
		failures, err := r.ManualCalibrate(ctx, input, func(obs []robot.RangeObservation) {
			p.Send(obsMsg(obs))
		})
		resCh <- calResult{failures: failures, err: err}
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		// Unblock the engine before the bus goes away underneath it.
		cancel()
		input.finish()
		<-resCh
		return nil, err
	}
	input.finish()

	res := <-resCh
	return res.failures, res.err
}

// terminalInput feeds the manual calibration engine from the terminal:
// the recording TUI's exit is the done signal, and the home pose is
// confirmed with a prompt.
type terminalInput struct {
	done chan struct{}
	once bool
}

func (t *terminalInput) Done() <-chan struct{} { return t.done }

func (t *terminalInput) finish() {
	if !t.once {
		t.once = true
		close(t.done)
	}
}

func (t *terminalInput) AwaitHome(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Move the arm to its home (rest) position.")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("").
				Affirmative("Continue").
				Negative("").
				Value(new(bool)),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

// Live range-recording TUI. Samples are pushed in from the calibration
// engine; the model renders the latest pass as a table and streams each
// joint's position into a chart.
type rangeModel struct {
	obs      []robot.RangeObservation
	chart    *streamlinechart.Model
	width    int
	quitting bool
}

type obsMsg []robot.RangeObservation

func newRangeModel() rangeModel {
	chart := streamlinechart.New(80, 12,
		streamlinechart.WithYRange(0, 4096),
	)
	for i, joint := range robot.DefaultJoints() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColor(i)))
		chart.SetDataSetStyles(joint.Name, runes.ThinLineStyle, style)
	}
	return rangeModel{chart: &chart}
}

func (m rangeModel) Init() tea.Cmd { return nil }

func (m rangeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 4; w >= 40 {
			m.chart.Resize(w, 12)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case obsMsg:
		m.obs = msg
		for _, o := range m.obs {
			if o.Current != nil {
				m.chart.PushDataSet(o.Name, float64(*o.Current))
			}
		}
		m.chart.DrawAll()
	}
	return m, nil
}

func (m rangeModel) View() string {
	if m.quitting {
		return ""
	}
	if len(m.obs) == 0 {
		return dimStyle.Render("Waiting for joint samples...")
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableJointStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.obs))
	ranges := make([]int, 0, len(m.obs))
	for _, o := range m.obs {
		rangeSize := 0
		if o.Min != nil && o.Max != nil {
			rangeSize = *o.Max - *o.Min
		}
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			o.Name,
			fmtSample(o.Current),
			fmtSample(o.Min),
			fmtSample(o.Max),
			fmt.Sprintf("%d", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableJointStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	chartStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderJointLegend())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))
	return sb.String()
}

func renderJointLegend() string {
	var items []string
	for i, joint := range robot.DefaultJoints() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColor(i))).Bold(true)
		items = append(items, style.Render("━━")+" "+joint.Name)
	}
	return strings.Join(items, "  ")
}

func fmtSample(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func renderCalibrationTable(set robot.CalibrationSet) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(set))
	for _, id := range set.IDs() {
		cal := set[id]
		rows = append(rows, []string{
			cal.Name,
			fmt.Sprintf("%d", cal.RangeMin),
			fmt.Sprintf("%d", cal.RangeMax),
			fmt.Sprintf("%d", cal.RangeSize()),
			fmt.Sprintf("%d", cal.HomingOffset),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Min", "Max", "Range", "Offset").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Render()
}
