package robot

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Subsequence selects waypoints [start, end] using 1-based inclusive
// indices; end 0 means the last waypoint. Reversal applies to the selected
// slice as a whole, after slicing. The input is never mutated.
func Subsequence(list []Waypoint, start, end int, reverse bool) ([]Waypoint, error) {
	if len(list) == 0 {
		return nil, validationf("no waypoints to select from")
	}
	if end == 0 {
		end = len(list)
	}
	if start < 1 || start > len(list) {
		return nil, validationf("start waypoint %d out of range 1..%d", start, len(list))
	}
	if end < start || end > len(list) {
		return nil, validationf("end waypoint %d out of range %d..%d", end, start, len(list))
	}

	selected := make([]Waypoint, end-start+1)
	copy(selected, list[start-1:end])

	if reverse {
		for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
			selected[i], selected[j] = selected[j], selected[i]
		}
	}
	return selected, nil
}

// PlayOptions parameterizes one playback run.
type PlayOptions struct {
	Speed          int
	Accel          int
	Wait           time.Duration // dwell after each waypoint
	Loops          int           // 0 = repeat until cancelled
	InterLoopDelay time.Duration // between iterations, not after the last
}

// Player repeats a fixed subsequence through the executor. Every iteration
// is identical; the iteration number never alters the selection.
type Player struct {
	Exec   *Executor
	Logger *log.Logger
}

// Play runs the subsequence Loops times, or until ctx is cancelled when
// Loops is 0. An iteration's failure aborts the whole playback.
func (p *Player) Play(ctx context.Context, wps []Waypoint, opts PlayOptions) error {
	if len(wps) == 0 {
		return validationf("empty waypoint subsequence")
	}
	if opts.InterLoopDelay <= 0 {
		opts.InterLoopDelay = 2 * time.Second
	}

	positions := make([][]int, len(wps))
	for i, wp := range wps {
		positions[i] = wp.Positions
	}

	for iteration := 1; opts.Loops == 0 || iteration <= opts.Loops; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if opts.Loops == 0 {
			p.Logger.Info("starting loop", "iteration", iteration)
		} else {
			p.Logger.Info("starting loop", "iteration", iteration, "of", opts.Loops)
		}

		if err := p.Exec.ExecuteWaypoints(ctx, positions, opts.Speed, opts.Accel, opts.Wait); err != nil {
			return err
		}

		if opts.Loops == 0 || iteration < opts.Loops {
			sleep(ctx, opts.InterLoopDelay)
		}
	}
	return nil
}
