package models

import (
	"math"

	"gpxracer.app/internal/race"
	"gpxracer.app/internal/route"
	"gpxracer.app/internal/session"
)

const (
	Route1Color = "#D1495B"
	Route2Color = "#00798C"
)

// RouteColor returns the display color of a route slot.
func RouteColor(slot int) string {
	if slot == 2 {
		return Route2Color
	}
	return Route1Color
}

// RouteSummary describes one route slot of a session.
type RouteSummary struct {
	Slot       int     `json:"slot"`
	Loaded     bool    `json:"loaded"`
	FileName   string  `json:"fileName,omitempty"`
	Points     int     `json:"points"`
	DistanceM  float64 `json:"distanceM"`
	DistanceKm float64 `json:"distanceKm"`
	Color      string  `json:"color"`
}

// NewRouteSummary builds the summary for slot; r may be nil.
func NewRouteSummary(slot int, name string, r *route.Route) RouteSummary {
	summary := RouteSummary{Slot: slot, Color: RouteColor(slot)}
	if r == nil {
		return summary
	}
	summary.Loaded = true
	summary.FileName = name
	summary.Points = r.Len()
	summary.DistanceM = r.TotalMeters()
	summary.DistanceKm = math.Round(r.TotalMeters()/10) / 100
	return summary
}

// RaceView is everything the client needs to draw a session.
type RaceView struct {
	SessionID string          `json:"sessionId"`
	Ready     bool            `json:"ready"`
	Playing   bool            `json:"playing"`
	State     race.State      `json:"state"`
	Routes    []RouteSummary  `json:"routes"`
	Markers   []race.Marker   `json:"markers"`
	Center    *route.GeoPoint `json:"center,omitempty"`
}

// NewRaceView renders a session snapshot.
func NewRaceView(s *session.Session) RaceView {
	view := RaceView{
		SessionID: s.ID,
		Ready:     s.Ready(),
		Playing:   s.State.Playing(),
		State:     s.State,
		Routes:    make([]RouteSummary, 0, 2),
		Markers:   s.State.Markers(s.Routes[0], s.Routes[1]),
	}
	for slot := 1; slot <= 2; slot++ {
		view.Routes = append(view.Routes, NewRouteSummary(slot, s.FileNames[slot-1], s.Route(slot)))
	}
	if view.Markers == nil {
		view.Markers = []race.Marker{}
	}

	var loaded []*route.Route
	for _, r := range s.Routes {
		if r != nil {
			loaded = append(loaded, r)
		}
	}
	if len(loaded) > 0 {
		center := route.Center(loaded...)
		view.Center = &center
	}
	return view
}

// AlignmentResult is returned by the align operation.
type AlignmentResult struct {
	View      RaceView `json:"view"`
	DistanceM float64  `json:"distanceM"`
}

// NearbyPoint is a route point within a search radius.
type NearbyPoint struct {
	Index     int            `json:"index"`
	Point     route.GeoPoint `json:"point"`
	Progress  float64        `json:"progress"`
	DistanceM float64        `json:"distanceM"`
}

// SessionCreated is returned when a session is created.
type SessionCreated struct {
	ID string `json:"id"`
}
