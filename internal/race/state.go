// Package race holds the state of a two-route race as a plain value and the
// operations the UI performs on it. Every operation returns a new State; the
// routes themselves are never modified.
package race

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gpxracer.app/internal/route"
)

// ErrRoutesMissing is returned by operations that need both routes.
var ErrRoutesMissing = errors.New("both routes must be loaded")

// syncEpsilon is the smallest sync slider movement that moves both dots.
const syncEpsilon = 1e-9

// State is the progress of both dots plus the synchronized slider and the
// running autoplay, if any.
type State struct {
	Route1Progress   float64   `json:"route1Progress"`
	Route2Progress   float64   `json:"route2Progress"`
	SyncProgress     float64   `json:"syncProgress"`
	SyncProgressPrev float64   `json:"-"`
	Autoplay         *Autoplay `json:"autoplay,omitempty"`
}

// Clamp limits v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}

func validSlot(slot int) error {
	if slot != 1 && slot != 2 {
		return fmt.Errorf("unknown route slot %d", slot)
	}
	return nil
}

// Progress returns the progress of the given slot.
func (s State) Progress(slot int) float64 {
	if slot == 2 {
		return s.Route2Progress
	}
	return s.Route1Progress
}

// Playing reports whether autoplay is running.
func (s State) Playing() bool {
	return s.Autoplay != nil
}

func (s State) withSlot(slot int, v float64) State {
	if slot == 2 {
		s.Route2Progress = v
	} else {
		s.Route1Progress = v
	}
	return s
}

// recomputeSync sets the sync slider to the mean of both dots.
func (s State) recomputeSync() State {
	s.SyncProgress = (s.Route1Progress + s.Route2Progress) / 2
	s.SyncProgressPrev = s.SyncProgress
	return s
}

// Normalize clamps every progress value into [0,1].
func (s State) Normalize() State {
	s.Route1Progress = Clamp(s.Route1Progress)
	s.Route2Progress = Clamp(s.Route2Progress)
	s.SyncProgress = Clamp(s.SyncProgress)
	return s
}

// SetRouteProgress moves a single dot.
func (s State) SetRouteProgress(slot int, v float64) (State, error) {
	if err := validSlot(slot); err != nil {
		return s, err
	}
	return s.withSlot(slot, Clamp(v)).recomputeSync(), nil
}

// SetSyncProgress moves the synchronized slider. Both dots jump to the new
// value only if the slider actually moved.
func (s State) SetSyncProgress(v float64) State {
	current := Clamp(v)
	if math.Abs(current-s.SyncProgressPrev) > syncEpsilon {
		s.Route1Progress = current
		s.Route2Progress = current
	}
	s.SyncProgress = current
	s.SyncProgressPrev = current
	return s
}

// StartAutoplay captures the current positions and starts running both dots
// to the end over d.
func (s State) StartAutoplay(now time.Time, d time.Duration) State {
	s.Autoplay = &Autoplay{
		Start:    now,
		From1:    Clamp(s.Route1Progress),
		From2:    Clamp(s.Route2Progress),
		Duration: d,
	}
	return s
}

// StopAutoplay freezes both dots where they are.
func (s State) StopAutoplay() State {
	s.Autoplay = nil
	return s
}

// Advance applies the running autoplay at now. Autoplay ends once both
// dots reach the end.
func (s State) Advance(now time.Time) State {
	if s.Autoplay == nil {
		return s
	}

	p1, p2, done := s.Autoplay.At(now)
	s.Route1Progress = p1
	s.Route2Progress = p2
	s = s.recomputeSync()
	if done {
		s.Autoplay = nil
	}
	return s
}

// AlignEarliest moves both dots to the earliest close pairing of the two
// routes and returns the distance between the paired points.
func (s State) AlignEarliest(r1, r2 *route.Route) (State, float64, error) {
	if r1 == nil || r2 == nil {
		return s, 0, ErrRoutesMissing
	}

	alignment := route.EarliestAlignment(r1, r2)
	return s.ApplyAlignment(r1, r2, alignment), alignment.DistanceM, nil
}

// ApplyAlignment moves both dots to an alignment computed earlier for the
// same pair of routes.
func (s State) ApplyAlignment(r1, r2 *route.Route, a route.Alignment) State {
	s.Route1Progress = r1.Progress(a.IndexA)
	s.Route2Progress = r2.Progress(a.IndexB)
	return s.recomputeSync()
}

// StartFrom moves the other dot to the point of its route nearest to the
// source dot's current position.
func (s State) StartFrom(source int, r1, r2 *route.Route) (State, error) {
	if err := validSlot(source); err != nil {
		return s, err
	}
	if r1 == nil || r2 == nil {
		return s, ErrRoutesMissing
	}

	src, dst, target := r1, r2, 2
	if source == 2 {
		src, dst, target = r2, r1, 1
	}

	sourceIndex := route.NearestIndexForProgress(src, s.Progress(source))
	targetIndex := route.NearestIndexForPoint(src.Point(sourceIndex), dst)
	return s.withSlot(target, dst.Progress(targetIndex)).recomputeSync(), nil
}

// Marker is the rendered position of one dot.
type Marker struct {
	Slot     int            `json:"slot"`
	Index    int            `json:"index"`
	Point    route.GeoPoint `json:"point"`
	Progress float64        `json:"progress"`
}

// Markers returns the point each dot should be drawn at.
func (s State) Markers(r1, r2 *route.Route) []Marker {
	var markers []Marker
	if r1 != nil {
		markers = append(markers, marker(1, r1, s.Route1Progress))
	}
	if r2 != nil {
		markers = append(markers, marker(2, r2, s.Route2Progress))
	}
	return markers
}

func marker(slot int, r *route.Route, progress float64) Marker {
	i := route.NearestIndexForProgress(r, progress)
	return Marker{Slot: slot, Index: i, Point: r.Point(i), Progress: r.Progress(i)}
}
