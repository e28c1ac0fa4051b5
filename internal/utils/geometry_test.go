package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBounds(t *testing.T) {
	lat := 51.0
	lon := -1.0
	radius := 500.0

	bounds := CalculateBounds(lat, lon, radius)

	latDiff := bounds.MaxLat - bounds.MinLat
	lonDiff := bounds.MaxLon - bounds.MinLon

	// 1000 m of latitude is ~0.008993 degrees; longitude widens by 1/cos(51°)
	assert.InDelta(t, 0.008993, latDiff, 0.00001)
	assert.InDelta(t, 0.008993/math.Cos(51*math.Pi/180), lonDiff, 0.00001)
	assert.Less(t, bounds.MinLat, lat)
	assert.Greater(t, bounds.MaxLat, lat)
}

func TestSearchBoxes(t *testing.T) {
	t.Run("ordinary circle is one box", func(t *testing.T) {
		boxes := SearchBoxes(51.0, -1.0, 500)
		assert.Equal(t, []CoordinateBounds{CalculateBounds(51.0, -1.0, 500)}, boxes)
	})

	t.Run("east of the antimeridian wraps", func(t *testing.T) {
		// 1000 m at the equator is ~0.008993 degrees of longitude
		boxes := SearchBoxes(0, 179.999, 1000)
		assert.Len(t, boxes, 2)
		assert.InDelta(t, 179.990007, boxes[0].MinLon, 0.00001)
		assert.Equal(t, 180.0, boxes[0].MaxLon)
		assert.Equal(t, -180.0, boxes[1].MinLon)
		assert.InDelta(t, -179.992007, boxes[1].MaxLon, 0.00001)
	})

	t.Run("west of the antimeridian wraps", func(t *testing.T) {
		boxes := SearchBoxes(0, -179.999, 1000)
		assert.Len(t, boxes, 2)
		assert.InDelta(t, 179.992007, boxes[0].MinLon, 0.00001)
		assert.Equal(t, 180.0, boxes[0].MaxLon)
		assert.Equal(t, -180.0, boxes[1].MinLon)
		assert.InDelta(t, -179.990007, boxes[1].MaxLon, 0.00001)
	})

	t.Run("reaching a pole covers every longitude", func(t *testing.T) {
		boxes := SearchBoxes(89.9999, 45, 500)
		assert.Len(t, boxes, 1)
		assert.Equal(t, 90.0, boxes[0].MaxLat)
		assert.Equal(t, -180.0, boxes[0].MinLon)
		assert.Equal(t, 180.0, boxes[0].MaxLon)
	})

	t.Run("huge radius stays finite", func(t *testing.T) {
		boxes := SearchBoxes(0, 0, 2e7)
		assert.Len(t, boxes, 1)
		assert.Equal(t, CoordinateBounds{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}, boxes[0])
	})
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same point (zero distance)",
			lat1:      51.0,
			lon1:      -1.0,
			lat2:      51.0,
			lon2:      -1.0,
			expected:  0,
			tolerance: 0,
		},
		{
			name:      "London to Paris",
			lat1:      51.5074,
			lon1:      -0.1278,
			lat2:      48.8566,
			lon2:      2.3522,
			expected:  343556,
			tolerance: 1000,
		},
		{
			name:      "Quarter meridian",
			lat1:      0,
			lon1:      0,
			lat2:      90,
			lon2:      0,
			expected:  math.Pi / 2 * RadiusOfEarthInMeters,
			tolerance: 0.001,
		},
		{
			name:      "Half equator",
			lat1:      0,
			lon1:      0,
			lat2:      0,
			lon2:      180,
			expected:  math.Pi * RadiusOfEarthInMeters,
			tolerance: 0.001,
		},
		{
			name:      "GPS track step",
			lat1:      51.0,
			lon1:      -1.0,
			lat2:      51.0005,
			lon2:      -1.0005,
			expected:  65.69,
			tolerance: 0.2,
		},
		{
			name:      "Crossing the antimeridian",
			lat1:      0,
			lon1:      179.9995,
			lat2:      0,
			lon2:      -179.9995,
			expected:  111.19,
			tolerance: 0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, result, tt.tolerance)
		})
	}
}

func TestDistance_IdenticalPointsIsZero(t *testing.T) {
	points := [][2]float64{{51.0, -1.0}, {0, 0}, {-33.8688, 151.2093}, {89.9999, 179.9999}}
	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p[0], p[1], p[0], p[1]))
	}
}

func TestDistance_Symmetry(t *testing.T) {
	pairs := [][4]float64{
		{51.0, -1.0, 51.001, -1.001},
		{40.7128, -74.0060, 34.0522, -118.2437},
		{-33.9249, -18.4241, -34.6037, -58.3816},
		{40.0, 0.0, -40.0, 180.0},
	}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1], p[2], p[3]), Distance(p[2], p[3], p[0], p[1]))
	}
}

func TestDistance_OutputRange(t *testing.T) {
	tests := [][4]float64{
		{0, 0, 0, 0},
		{90, 0, -90, 0},
		{45, 45, -45, -135},
		{-90, 180, 90, -180},
	}

	for _, tt := range tests {
		result := Distance(tt[0], tt[1], tt[2], tt[3])
		assert.GreaterOrEqual(t, result, 0.0)
		assert.LessOrEqual(t, result, math.Pi*RadiusOfEarthInMeters+1e-6)
		assert.False(t, math.IsNaN(result))
	}
}

func TestIsOutOfBounds(t *testing.T) {
	outer := CoordinateBounds{MinLat: 0, MaxLat: 3, MinLon: 0, MaxLon: 3}

	tests := []struct {
		name     string
		inner    CoordinateBounds
		expected bool
	}{
		{"inside", CoordinateBounds{MinLat: 1, MaxLat: 2, MinLon: 1, MaxLon: 2}, false},
		{"north", CoordinateBounds{MinLat: 5, MaxLat: 6, MinLon: 1, MaxLon: 2}, true},
		{"west", CoordinateBounds{MinLat: 1, MaxLat: 2, MinLon: -6, MaxLon: -5}, true},
		{"partial overlap", CoordinateBounds{MinLat: 2, MaxLat: 5, MinLon: 2, MaxLon: 5}, false},
		{"touching edge", CoordinateBounds{MinLat: 3, MaxLat: 4, MinLon: 1, MaxLon: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOutOfBounds(tt.inner, outer))
		})
	}
}

func TestCentroid(t *testing.T) {
	lat, lon := Centroid([]float64{51.0, 51.002}, []float64{-1.0, -1.004})
	assert.InDelta(t, 51.001, lat, 1e-12)
	assert.InDelta(t, -1.002, lon, 1e-12)

	lat, lon = Centroid(nil, nil)
	assert.Equal(t, 0.0, lat)
	assert.Equal(t, 0.0, lon)
}
