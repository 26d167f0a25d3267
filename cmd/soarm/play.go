package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"

	"github.com/soarmkit/soarm/pkg/robot"
)

type PlayCommand struct {
	ConnectionOptions
	Speed   int           `long:"speed" default:"200" description:"Servo speed during playback"`
	Accel   int           `long:"acceleration" default:"100" description:"Servo acceleration during playback"`
	Wait    time.Duration `long:"wait" default:"2s" description:"Dwell time after each waypoint"`
	Loop    int           `long:"loop" default:"1" description:"Number of repetitions (0 = until interrupted)"`
	Start   int           `long:"start" default:"1" description:"First waypoint to play (1-based)"`
	End     int           `long:"end" description:"Last waypoint to play (default: last in file)"`
	Reverse bool          `long:"reverse" description:"Play the selection back to front"`
	List    bool          `long:"list" description:"List waypoint files and exit"`
	Yes     bool          `short:"y" long:"yes" description:"Skip the confirmation prompt"`

	Args struct {
		File string `positional-arg-name:"FILE" description:"Waypoint file to play"`
	} `positional-args:"yes"`
}

func (c *PlayCommand) Execute(args []string) error {
	if c.List {
		return listWaypointFiles()
	}

	path := c.Args.File
	if path == "" {
		var err error
		path, err = mostRecentWaypointFile()
		if err != nil {
			return err
		}
		fmt.Printf("No file given, using most recent: %s\n\n", path)
	}

	wf, err := robot.LoadWaypointFile(path)
	if err != nil {
		return err
	}

	selection, err := robot.Subsequence(wf.Waypoints, c.Start, c.End, c.Reverse)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Waypoint Playback"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━"))
	fmt.Println()
	fmt.Printf("File:      %s (%s, recorded %s)\n",
		path, wf.Metadata.RobotType, wf.Metadata.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Selection: %d of %d waypoints", len(selection), len(wf.Waypoints))
	if c.Reverse {
		fmt.Print(", reversed")
	}
	fmt.Println()
	if c.Loop == 0 {
		fmt.Println("Loops:     until interrupted")
	} else {
		fmt.Printf("Loops:     %d\n", c.Loop)
	}
	fmt.Println()

	for _, wp := range selection {
		fmt.Printf("  %3d  %v\n", wp.ID, wp.Positions)
	}
	fmt.Println()

	if !c.Yes {
		var proceed bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("The arm will move. Start playback?").
					Value(&proceed),
			),
		)
		if err := form.Run(); err != nil || !proceed {
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

	if err := requireCalibration(r); err != nil {
		return err
	}
	if err := wf.Validate(r.Calibration()); err != nil {
		return err
	}

	player := &robot.Player{Exec: r.Executor(), Logger: c.logger()}
	err = player.Play(ctx, selection, robot.PlayOptions{
		Speed: c.Speed,
		Accel: c.Accel,
		Wait:  c.Wait,
		Loops: c.Loop,
	})
	if errors.Is(err, context.Canceled) {
		fmt.Println()
		fmt.Println("Playback interrupted.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Playback complete."))
	return nil
}

func listWaypointFiles() error {
	files, err := robot.ListWaypointFiles(".")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No waypoint files found.")
		return nil
	}

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		detail := dimStyle.Render("(unreadable)")
		if wf, err := robot.LoadWaypointFile(f); err == nil {
			detail = fmt.Sprintf("%d waypoints", len(wf.Waypoints))
		}
		fmt.Printf("  %-40s  %6d bytes  %s  %s\n",
			f, info.Size(), info.ModTime().Format("2006-01-02 15:04"), detail)
	}
	return nil
}

// mostRecentWaypointFile picks the newest waypoint file by mtime.
func mostRecentWaypointFile() (string, error) {
	files, err := robot.ListWaypointFiles(".")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.New("no waypoint files found; record one with 'soarm record'")
	}

	newest := ""
	var newestTime time.Time
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = f
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", errors.New("no readable waypoint files found")
	}
	return newest, nil
}
