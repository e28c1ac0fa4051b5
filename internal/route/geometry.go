package route

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
)

// Polyline returns the route encoded as a Google polyline string.
func (r *Route) Polyline() string {
	coords := make([][]float64, len(r.points))
	for i, p := range r.points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// FeatureCollection returns the route as a single GeoJSON LineString feature.
// GeoJSON orders coordinates longitude first.
func (r *Route) FeatureCollection(properties map[string]interface{}) *geojson.FeatureCollection {
	line := make(orb.LineString, len(r.points))
	for i, p := range r.points {
		line[i] = orb.Point{p.Lon, p.Lat}
	}

	feature := geojson.NewFeature(line)
	for k, v := range properties {
		feature.Properties[k] = v
	}
	feature.Properties["distance_m"] = r.TotalMeters()
	feature.Properties["points"] = len(r.points)

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)
	return fc
}
