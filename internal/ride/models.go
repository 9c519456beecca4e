// Package ride runs live ride sessions: it consumes position fixes and
// roughness samples from the rider's device, snaps them onto the active
// route, folds roughness into the segment store, and raises reroute
// signals when the rider diverges.
package ride

import (
	"errors"
	"time"

	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/pkg/geo"
)

// Ride errors.
var (
	// ErrRideNotFound is returned when no session exists for a ride ID.
	ErrRideNotFound = errors.New("ride not found")

	// ErrRideClosed is returned when pushing into a finished session.
	ErrRideClosed = errors.New("ride session closed")
)

// PositionFix is one GPS observation from the rider's device.
type PositionFix struct {
	// Point is the raw position.
	Point geo.Coordinate `json:"point"`

	// HeadingDegrees is the device's travel heading in [0, 360).
	HeadingDegrees float64 `json:"headingDegrees"`

	// Timestamp is when the fix was taken.
	Timestamp time.Time `json:"timestamp"`
}

// RoughnessSample is one accelerometer-derived roughness observation.
type RoughnessSample struct {
	// Point is where the sample was taken.
	Point geo.Coordinate `json:"point"`

	// RMS is the vertical-acceleration RMS in m/s^2 over the sample window.
	RMS float64 `json:"rms"`

	// Timestamp is when the sample window ended.
	Timestamp time.Time `json:"timestamp"`
}

// RerouteSignal reports that a session wants fresh directions.
type RerouteSignal struct {
	// RouteID is the route the rider diverged from.
	RouteID routing.RouteID `json:"routeId"`

	// Position is the fix that triggered the signal.
	Position geo.Coordinate `json:"position"`

	// OffRouteMeters is the snap distance at trigger time. Infinite when
	// the rider was beyond the snap radius entirely.
	OffRouteMeters float64 `json:"offRouteMeters"`

	// HeadingDeltaDegrees is the divergence from the matched edge bearing.
	HeadingDeltaDegrees float64 `json:"headingDeltaDegrees"`
}
