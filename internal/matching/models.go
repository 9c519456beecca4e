// Package matching snaps live rider positions onto the steps of an
// active route. Matching is pure geometry: it consumes a route once at
// construction and then answers point queries with no I/O.
package matching

import (
	"github.com/skateroute/skateroute/pkg/geo"
)

// MatchResult describes where on the route a position snapped.
type MatchResult struct {
	// StepIndex is the index of the matched step in the route.
	StepIndex int `json:"stepIndex"`

	// Snapped is the closest point on the matched step's polyline.
	Snapped geo.Coordinate `json:"snapped"`

	// DistanceMeters is the distance from the raw position to Snapped.
	DistanceMeters float64 `json:"distanceMeters"`

	// BearingDegrees is the travel direction of the matched edge.
	BearingDegrees float64 `json:"bearingDegrees"`

	// ProgressInStep is the fraction [0,1] of the step's length covered
	// at the snapped point.
	ProgressInStep float64 `json:"progressInStep"`

	// Confidence in [0,1] falls off linearly with snap distance.
	Confidence float64 `json:"confidence"`
}
