package utils

import "math"

const (
	// RadiusOfEarthInMeters is the mean Earth radius used for all great-circle math.
	RadiusOfEarthInMeters = 6371000.0
)

// CoordinateBounds represents a bounding box with min/max latitude and longitude
type CoordinateBounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance in meters between two points
// using the haversine formula. It is exactly symmetric and returns 0 for
// identical points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	deltaPhi := toRadians(lat2 - lat1)
	deltaLambda := toRadians(lon2 - lon1)

	sinPhi := math.Sin(deltaPhi / 2)
	sinLambda := math.Sin(deltaLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// rounding can push a fraction past 1 for antipodal points
	if a > 1 {
		a = 1
	}

	return 2 * RadiusOfEarthInMeters * math.Asin(math.Sqrt(a))
}

// CalculateBounds returns a box that contains every point within distance
// meters of (lat, lon). Longitudes are not wrapped; use SearchBoxes when the
// box may cross the antimeridian or reach a pole.
func CalculateBounds(lat, lon, distance float64) CoordinateBounds {
	latRadians := toRadians(lat)
	lonRadians := toRadians(lon)

	latOffset := distance / RadiusOfEarthInMeters
	// widest longitude reached by the circle, not the offset along the parallel
	lonOffset := math.Pi
	if s := math.Sin(latOffset) / math.Cos(latRadians); s < 1 {
		lonOffset = math.Asin(s)
	}

	minLat := (latRadians - latOffset) * 180 / math.Pi
	maxLat := (latRadians + latOffset) * 180 / math.Pi
	minLon := (lonRadians - lonOffset) * 180 / math.Pi
	maxLon := (lonRadians + lonOffset) * 180 / math.Pi

	return CoordinateBounds{
		MinLat: minLat,
		MaxLat: maxLat,
		MinLon: minLon,
		MaxLon: maxLon,
	}
}

// SearchBoxes covers the circle of distance meters around (lat, lon) with
// boxes inside [-90,90]x[-180,180]. A circle reaching a pole gets the full
// longitude band; one crossing the antimeridian is split in two.
func SearchBoxes(lat, lon, distance float64) []CoordinateBounds {
	b := CalculateBounds(lat, lon, distance)

	if b.MinLat <= -90 || b.MaxLat >= 90 || b.MaxLon-b.MinLon >= 360 {
		return []CoordinateBounds{{
			MinLat: math.Max(b.MinLat, -90),
			MaxLat: math.Min(b.MaxLat, 90),
			MinLon: -180,
			MaxLon: 180,
		}}
	}

	switch {
	case b.MinLon < -180:
		return []CoordinateBounds{
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: b.MinLon + 360, MaxLon: 180},
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: -180, MaxLon: b.MaxLon},
		}
	case b.MaxLon > 180:
		return []CoordinateBounds{
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: b.MinLon, MaxLon: 180},
			{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: -180, MaxLon: b.MaxLon - 360},
		}
	default:
		return []CoordinateBounds{b}
	}
}

// IsOutOfBounds returns true only if the inner bounds have no overlap
// with the outer bounds.
func IsOutOfBounds(inner, outer CoordinateBounds) bool {
	return inner.MaxLat < outer.MinLat ||
		inner.MinLat > outer.MaxLat ||
		inner.MaxLon < outer.MinLon ||
		inner.MinLon > outer.MaxLon
}

// Centroid returns the arithmetic mean of the given coordinates. This is what
// the map uses to pick its initial center, not a true spherical centroid.
func Centroid(lats, lons []float64) (lat, lon float64) {
	if len(lats) == 0 || len(lats) != len(lons) {
		return 0, 0
	}
	var sumLat, sumLon float64
	for i := range lats {
		sumLat += lats[i]
		sumLon += lons[i]
	}
	n := float64(len(lats))
	return sumLat / n, sumLon / n
}
