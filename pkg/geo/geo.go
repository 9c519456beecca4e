// Package geo provides geographic primitives used by the scoring and
// matching core: great-circle distance, bearings, and projection of a
// point onto a polyline segment.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	// earthRadiusMeters is the mean Earth radius used for haversine distances.
	earthRadiusMeters = 6371000.0
)

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate creates a Coordinate from latitude and longitude in degrees.
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// HaversineMeters returns the great-circle distance between two points in meters.
func HaversineMeters(a, b Coordinate) float64 {
	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)
	dLat := lat2 - lat1
	dLon := degToRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// BearingDegrees returns the initial bearing from a to b in degrees [0, 360).
func BearingDegrees(a, b Coordinate) float64 {
	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := radToDeg(math.Atan2(y, x))
	return math.Mod(bearing+360, 360)
}

// AngleDiffDegrees returns the smallest absolute difference between two
// bearings in degrees, in [0, 180].
func AngleDiffDegrees(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Projection is the result of projecting a point onto a segment.
type Projection struct {
	// Point is the closest point on the segment.
	Point Coordinate

	// T is the clamped projection parameter in [0, 1] along the segment.
	T float64

	// DistanceMeters is the distance from the query point to Point.
	DistanceMeters float64
}

// ProjectOntoSegment projects p onto the segment (a, b) using the s2
// geodesic projection and returns the clamped closest point, the scalar
// parameter along the segment, and the distance from p to that point.
// A degenerate segment (a == b) projects onto a with T = 0.
func ProjectOntoSegment(p, a, b Coordinate) Projection {
	if a == b {
		return Projection{Point: a, T: 0, DistanceMeters: HaversineMeters(p, a)}
	}

	aS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	bS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	pS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))

	// s2.Project already clamps to the segment interior or endpoints.
	proj := s2.Project(pS2, aS2, bS2)
	projLL := s2.LatLngFromPoint(proj)
	snapped := NewCoordinate(projLL.Lat.Degrees(), projLL.Lng.Degrees())

	segLen := HaversineMeters(a, b)
	t := 0.0
	if segLen > 0 {
		t = HaversineMeters(a, snapped) / segLen
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return Projection{
		Point:          snapped,
		T:              t,
		DistanceMeters: HaversineMeters(p, snapped),
	}
}

// DestinationPoint returns the point reached by travelling distMeters from
// start along the given bearing in degrees.
func DestinationPoint(start Coordinate, bearingDeg, distMeters float64) Coordinate {
	dr := distMeters / earthRadiusMeters
	bearing := degToRad(bearingDeg)
	lat1 := degToRad(start.Lat)
	lon1 := degToRad(start.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(dr) + math.Cos(lat1)*math.Sin(dr)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearing)*math.Sin(dr)*math.Cos(lat1),
		math.Cos(dr)-math.Sin(lat1)*math.Sin(lat2),
	)

	return NewCoordinate(radToDeg(lat2), normalizeLongitude(radToDeg(lon2)))
}

// PathLengthMeters returns the total length of a polyline in meters.
func PathLengthMeters(points []Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineMeters(points[i-1], points[i])
	}
	return total
}

func normalizeLongitude(lon float64) float64 {
	return math.Mod(lon+540, 360) - 180.0
}
