package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/soarmkit/soarm/pkg/robot"
)

type StatusCommand struct {
	ConnectionOptions
}

func (c *StatusCommand) Execute(args []string) error {
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

	statuses, err := r.Status()
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Arm Status"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━"))
	fmt.Println()
	fmt.Println(renderStatusTable(statuses))
	return nil
}

func renderStatusTable(statuses []robot.JointStatus) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableJointStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(statuses))
	for _, js := range statuses {
		position := "-"
		percent := "-"
		if js.Status.Position != nil {
			position = fmt.Sprintf("%d", *js.Status.Position)
			percent = fmt.Sprintf("%.0f%%", js.Cal.RangePercent(*js.Status.Position))
		}

		speed := "-"
		if js.Status.Speed != nil {
			speed = fmt.Sprintf("%d", *js.Status.Speed)
		}
		load := "-"
		if js.Status.Load != nil {
			load = fmt.Sprintf("%d", *js.Status.Load)
		}
		voltage := "-"
		if js.Status.Voltage != nil {
			voltage = fmt.Sprintf("%.1fV", *js.Status.Voltage)
		}
		temperature := "-"
		if js.Status.Temperature != nil {
			temperature = fmt.Sprintf("%d°C", *js.Status.Temperature)
		}

		rows = append(rows, []string{
			js.Cal.Name, position, percent, speed, load, voltage, temperature,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Position", "Range", "Speed", "Load", "Voltage", "Temp").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return tableJointStyle
			}
			return tableCellStyle
		}).
		Render()
}
