package race

import (
	"context"
	"errors"
	"time"

	"gpxracer.app/internal/clock"
)

// DefaultAutoplayDuration is how long an autoplay run takes to reach the end.
const DefaultAutoplayDuration = 60 * time.Second

// Autoplay is a snapshot taken when a run starts. Positions are derived from
// elapsed wall-clock time, so it does not matter how often they are read.
type Autoplay struct {
	Start    time.Time     `json:"start"`
	From1    float64       `json:"from1"`
	From2    float64       `json:"from2"`
	Duration time.Duration `json:"duration"`
}

// Ratio returns the completed fraction of the run at now, in [0,1].
func (a Autoplay) Ratio(now time.Time) float64 {
	if a.Duration <= 0 {
		return 1
	}
	return Clamp(float64(now.Sub(a.Start)) / float64(a.Duration))
}

// At returns both dot positions at now and whether the run has finished.
func (a Autoplay) At(now time.Time) (p1, p2 float64, done bool) {
	ratio := a.Ratio(now)
	if ratio >= 1 {
		return 1, 1, true
	}
	p1 = a.From1 + (1-a.From1)*ratio
	p2 = a.From2 + (1-a.From2)*ratio
	return p1, p2, false
}

// Animator calls a step function on every tick of a clock.
type Animator struct {
	Clock    clock.Clock
	Interval time.Duration
}

// ErrStopped is returned by Run when step asked to stop.
var ErrStopped = errors.New("animation stopped")

// Run calls step with the tick time until step returns false, in which case
// Run returns ErrStopped, or until ctx is done.
func (a Animator) Run(ctx context.Context, step func(now time.Time) bool) error {
	if a.Interval <= 0 {
		return errors.New("animator interval must be positive")
	}
	ticker := a.Clock.NewTicker(a.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			if !step(now) {
				return ErrStopped
			}
		}
	}
}
