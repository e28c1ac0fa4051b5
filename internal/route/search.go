package route

import "math"

const (
	// Scores within this relative distance are treated as a tie, and the
	// pairing with the shorter distance wins.
	scoreRelTolerance = 1e-9
	scoreAbsTolerance = 1e-12
)

// Alignment is a pair of indices, one on each route, and the distance
// between the two points.
type Alignment struct {
	IndexA    int     `json:"indexA"`
	IndexB    int     `json:"indexB"`
	DistanceM float64 `json:"distanceM"`
}

func clampProgress(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}

// NearestIndexForProgress returns the index whose progress is closest to
// target after clamping it into [0,1]. The lowest index wins on ties.
func NearestIndexForProgress(r *Route, target float64) int {
	target = clampProgress(target)

	bestIdx := 0
	bestDiff := math.Abs(r.progress[0] - target)
	for i, p := range r.progress {
		diff := math.Abs(p - target)
		if diff < bestDiff {
			bestDiff = diff
			bestIdx = i
		}
	}
	return bestIdx
}

// NearestPointForProgress returns the route point nearest to target progress.
func NearestPointForProgress(r *Route, target float64) GeoPoint {
	return r.points[NearestIndexForProgress(r, target)]
}

// NearestIndexForPoint returns the index of the route point geographically
// closest to target. The lowest index wins on ties.
func NearestIndexForPoint(target GeoPoint, r *Route) int {
	bestIdx := 0
	bestDist := Haversine(target, r.points[0])
	for i, p := range r.points {
		dist := Haversine(target, p)
		if dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
	}
	return bestIdx
}

func scoresClose(a, b float64) bool {
	tol := scoreRelTolerance * math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= math.Max(tol, scoreAbsTolerance)
}

// EarliestAlignment pairs every point of a with its nearest point on b and
// keeps the pair with the smallest combined progress. Near-equal scores are
// broken by the shorter pairing distance. O(len(a)·len(b)).
func EarliestAlignment(a, b *Route) Alignment {
	bestI := 0
	bestJ := NearestIndexForPoint(a.points[0], b)
	bestDist := Haversine(a.points[0], b.points[bestJ])
	bestScore := a.progress[0] + b.progress[bestJ]

	for i, p := range a.points {
		j := NearestIndexForPoint(p, b)
		dist := Haversine(p, b.points[j])
		score := a.progress[i] + b.progress[j]

		if score < bestScore || (scoresClose(score, bestScore) && dist < bestDist) {
			bestI, bestJ = i, j
			bestDist = dist
			bestScore = score
		}
	}

	return Alignment{IndexA: bestI, IndexB: bestJ, DistanceM: bestDist}
}
