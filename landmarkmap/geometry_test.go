package landmarkmap

import (
	"math"
	"testing"
)

func assertWithinPercent(t *testing.T, got, want, percentTolerance float64) {
	t.Helper()

	if want == 0 {
		if math.Abs(got) > percentTolerance {
			t.Errorf("got %.6f, want 0 (absolute diff: %.6f > %.6f)",
				got, math.Abs(got), percentTolerance)
		}
		return
	}

	relativeError := math.Abs(got-want) / math.Abs(want)

	if relativeError > percentTolerance/100.0 {
		t.Errorf("got %.6f, want %.6f (deviation: %.2f%%, max: %.2f%%)",
			got, want, relativeError*100, percentTolerance)
	}
}

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
	}{
		{
			name: "1 degree north from equator",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			expected: 111195.0,
		},
		{
			name: "1 degree east from equator",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 1,
			expected: 111195.0,
		},
		{
			name: "zero distance",
			lat1: 46.0, lon1: 7.0,
			lat2: 46.0, lon2: 7.0,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assertWithinPercent(t, got, tt.expected, 0.1)
		})
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
		{7, 7 - 2*math.Pi},
	}

	for _, tt := range tests {
		got := NormalizeAngle(tt.in)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	proj := Projection{OriginLat: 46.2, OriginLon: 7.1}

	lat, lon := proj.ToGeo(350, -120)
	x, y := proj.ToLocal(lat, lon)
	if math.Abs(x-350) > 1e-6 || math.Abs(y+120) > 1e-6 {
		t.Fatalf("round trip gave (%v, %v)", x, y)
	}

	// local distances agree with the great circle over short ranges
	assertWithinPercent(t, math.Hypot(350, 120), HaversineDistance(proj.OriginLat, proj.OriginLon, lat, lon), 0.1)
}
