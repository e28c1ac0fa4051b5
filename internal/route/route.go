// Package route implements the route progress model: cumulative great-circle
// distance along a GPS track, normalized progress in [0,1], and the nearest
// point and alignment searches built on top of it.
//
// A Route is immutable once built and safe for concurrent readers.
package route

import (
	"errors"
	"fmt"

	"gpxracer.app/internal/utils"
)

// ErrInvalidRoute is returned when a point sequence cannot form a route:
// fewer than two distinct points, or zero total length.
var ErrInvalidRoute = errors.New("invalid route")

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b GeoPoint) float64 {
	return utils.Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Route is an ordered track with its cumulative distance and normalized
// progress. The three slices always have the same length.
type Route struct {
	points      []GeoPoint
	cumulativeM []float64
	progress    []float64
}

// Build deduplicates consecutive identical points and computes the distance
// and progress tables. It fails with ErrInvalidRoute when fewer than two
// points remain or the route has no length.
func Build(points []GeoPoint) (*Route, error) {
	deduped := make([]GeoPoint, 0, len(points))
	for _, p := range points {
		if len(deduped) > 0 && deduped[len(deduped)-1] == p {
			continue
		}
		deduped = append(deduped, p)
	}

	if len(deduped) < 2 {
		return nil, fmt.Errorf("%w: route needs at least 2 distinct points, got %d", ErrInvalidRoute, len(deduped))
	}

	cumulative := make([]float64, len(deduped))
	for i := 1; i < len(deduped); i++ {
		cumulative[i] = cumulative[i-1] + Haversine(deduped[i-1], deduped[i])
	}

	total := cumulative[len(cumulative)-1]
	if !(total > 0) {
		return nil, fmt.Errorf("%w: route has zero distance", ErrInvalidRoute)
	}

	progress := make([]float64, len(cumulative))
	for i, meters := range cumulative {
		progress[i] = meters / total
	}

	return &Route{
		points:      deduped,
		cumulativeM: cumulative,
		progress:    progress,
	}, nil
}

// Len returns the number of points in the route.
func (r *Route) Len() int {
	return len(r.points)
}

// Point returns the i-th point.
func (r *Route) Point(i int) GeoPoint {
	return r.points[i]
}

// Progress returns the normalized position of the i-th point.
func (r *Route) Progress(i int) float64 {
	return r.progress[i]
}

// CumulativeM returns the meters walked from the first point to the i-th point.
func (r *Route) CumulativeM(i int) float64 {
	return r.cumulativeM[i]
}

// TotalMeters returns the length of the whole route.
func (r *Route) TotalMeters() float64 {
	return r.cumulativeM[len(r.cumulativeM)-1]
}

// Points returns a copy of the route points.
func (r *Route) Points() []GeoPoint {
	out := make([]GeoPoint, len(r.points))
	copy(out, r.points)
	return out
}

// ProgressValues returns a copy of the progress table.
func (r *Route) ProgressValues() []float64 {
	out := make([]float64, len(r.progress))
	copy(out, r.progress)
	return out
}

// CumulativeValues returns a copy of the cumulative distance table.
func (r *Route) CumulativeValues() []float64 {
	out := make([]float64, len(r.cumulativeM))
	copy(out, r.cumulativeM)
	return out
}

// Center returns the mean position of the given routes' points.
func Center(routes ...*Route) GeoPoint {
	var lats, lons []float64
	for _, r := range routes {
		if r == nil {
			continue
		}
		for _, p := range r.points {
			lats = append(lats, p.Lat)
			lons = append(lons, p.Lon)
		}
	}
	lat, lon := utils.Centroid(lats, lons)
	return GeoPoint{Lat: lat, Lon: lon}
}
