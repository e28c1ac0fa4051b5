package route

import (
	"slices"
	"sort"

	"github.com/tidwall/rtree"
	"gpxracer.app/internal/utils"
)

// PointIndex is a spatial index over the points of a single route.
type PointIndex struct {
	route *Route
	tree  rtree.RTreeG[int]
}

// NewPointIndex indexes every point of r. Points are stored as degenerate
// boxes keyed by their route index, in lon/lat order.
func NewPointIndex(r *Route) *PointIndex {
	idx := &PointIndex{route: r}
	for i, p := range r.points {
		pt := [2]float64{p.Lon, p.Lat}
		idx.tree.Insert(pt, pt, i)
	}
	return idx
}

// Len returns the number of indexed points.
func (idx *PointIndex) Len() int {
	return idx.tree.Len()
}

// WithinRadius returns the indices of the route points within meters of
// center, in ascending index order. Searches near the antimeridian or a
// pole cover both sides.
func (idx *PointIndex) WithinRadius(center GeoPoint, meters float64) []int {
	if meters < 0 || idx.tree.Len() == 0 {
		return nil
	}

	routeBounds := idx.bounds()
	var hits []int
	for _, box := range utils.SearchBoxes(center.Lat, center.Lon, meters) {
		if utils.IsOutOfBounds(box, routeBounds) {
			continue
		}
		minPt := [2]float64{box.MinLon, box.MinLat}
		maxPt := [2]float64{box.MaxLon, box.MaxLat}
		idx.tree.Search(minPt, maxPt, func(_, _ [2]float64, i int) bool {
			if Haversine(center, idx.route.points[i]) <= meters {
				hits = append(hits, i)
			}
			return true
		})
	}

	// split boxes share their edge at ±180
	sort.Ints(hits)
	return slices.Compact(hits)
}

func (idx *PointIndex) bounds() utils.CoordinateBounds {
	lo, hi := idx.tree.Bounds()
	return utils.CoordinateBounds{MinLat: lo[1], MaxLat: hi[1], MinLon: lo[0], MaxLon: hi[0]}
}
