package geo

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Coordinate
		expected float64
		tol      float64
	}{
		{
			name:     "same point",
			a:        NewCoordinate(52.3676, 4.9041),
			b:        NewCoordinate(52.3676, 4.9041),
			expected: 0,
			tol:      0.001,
		},
		{
			name:     "amsterdam to utrecht",
			a:        NewCoordinate(52.3676, 4.9041),
			b:        NewCoordinate(52.0907, 5.1214),
			expected: 34230,
			tol:      500,
		},
		{
			name:     "one degree of latitude",
			a:        NewCoordinate(0, 0),
			b:        NewCoordinate(1, 0),
			expected: 111195,
			tol:      100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMeters(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.tol {
				t.Errorf("expected ~%f, got %f", tt.expected, got)
			}
		})
	}
}

func TestBearingDegrees(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Coordinate
		expected float64
		tol      float64
	}{
		{name: "due north", a: NewCoordinate(0, 0), b: NewCoordinate(1, 0), expected: 0, tol: 0.1},
		{name: "due east", a: NewCoordinate(0, 0), b: NewCoordinate(0, 1), expected: 90, tol: 0.1},
		{name: "due south", a: NewCoordinate(1, 0), b: NewCoordinate(0, 0), expected: 180, tol: 0.1},
		{name: "due west", a: NewCoordinate(0, 1), b: NewCoordinate(0, 0), expected: 270, tol: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDegrees(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.tol {
				t.Errorf("expected bearing ~%f, got %f", tt.expected, got)
			}
		})
	}
}

func TestAngleDiffDegrees(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected float64
	}{
		{0, 0, 0},
		{0, 90, 90},
		{350, 10, 20},
		{10, 350, 20},
		{0, 180, 180},
		{270, 90, 180},
		{45, 405, 0},
	}

	for _, tt := range tests {
		got := AngleDiffDegrees(tt.a, tt.b)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("AngleDiffDegrees(%f, %f) = %f, expected %f", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestProjectOntoSegment(t *testing.T) {
	a := NewCoordinate(0, 0)
	b := NewCoordinate(0, 0.01) // ~1.1km due east

	t.Run("point above midpoint snaps to interior", func(t *testing.T) {
		p := NewCoordinate(0.001, 0.005)
		proj := ProjectOntoSegment(p, a, b)

		if proj.T < 0.4 || proj.T > 0.6 {
			t.Errorf("expected t near 0.5, got %f", proj.T)
		}
		if math.Abs(proj.Point.Lon-0.005) > 0.0005 {
			t.Errorf("expected snapped lon near 0.005, got %f", proj.Point.Lon)
		}
		// Perpendicular distance of 0.001 deg latitude is ~111m.
		if math.Abs(proj.DistanceMeters-111.2) > 5 {
			t.Errorf("expected distance ~111m, got %f", proj.DistanceMeters)
		}
	})

	t.Run("point before segment start clamps to a", func(t *testing.T) {
		p := NewCoordinate(0, -0.01)
		proj := ProjectOntoSegment(p, a, b)

		if proj.T != 0 {
			t.Errorf("expected t = 0, got %f", proj.T)
		}
		if math.Abs(proj.Point.Lat-a.Lat) > 1e-6 || math.Abs(proj.Point.Lon-a.Lon) > 1e-6 {
			t.Errorf("expected snap to segment start, got %+v", proj.Point)
		}
	})

	t.Run("point past segment end clamps to b", func(t *testing.T) {
		p := NewCoordinate(0, 0.02)
		proj := ProjectOntoSegment(p, a, b)

		if proj.T != 1 {
			t.Errorf("expected t = 1, got %f", proj.T)
		}
	})

	t.Run("point on segment has zero distance", func(t *testing.T) {
		p := NewCoordinate(0, 0.003)
		proj := ProjectOntoSegment(p, a, b)

		if proj.DistanceMeters > 1 {
			t.Errorf("expected near-zero distance, got %f", proj.DistanceMeters)
		}
	})

	t.Run("degenerate segment projects onto endpoint", func(t *testing.T) {
		p := NewCoordinate(0.001, 0)
		proj := ProjectOntoSegment(p, a, a)

		if proj.T != 0 {
			t.Errorf("expected t = 0, got %f", proj.T)
		}
		if math.Abs(proj.DistanceMeters-111.2) > 5 {
			t.Errorf("expected distance ~111m, got %f", proj.DistanceMeters)
		}
	})
}

func TestDestinationPoint(t *testing.T) {
	start := NewCoordinate(52.0, 4.0)

	dest := DestinationPoint(start, 0, 1000)
	back := HaversineMeters(start, dest)
	if math.Abs(back-1000) > 1 {
		t.Errorf("expected destination 1000m away, got %f", back)
	}
	if dest.Lat <= start.Lat {
		t.Errorf("northbound destination should increase latitude, got %f", dest.Lat)
	}
}

func TestPathLengthMeters(t *testing.T) {
	if got := PathLengthMeters(nil); got != 0 {
		t.Errorf("expected 0 for empty path, got %f", got)
	}
	if got := PathLengthMeters([]Coordinate{{Lat: 1, Lon: 1}}); got != 0 {
		t.Errorf("expected 0 for single point, got %f", got)
	}

	path := []Coordinate{
		NewCoordinate(0, 0),
		NewCoordinate(0, 0.01),
		NewCoordinate(0, 0.02),
	}
	got := PathLengthMeters(path)
	if math.Abs(got-2224) > 20 {
		t.Errorf("expected ~2224m, got %f", got)
	}
}
