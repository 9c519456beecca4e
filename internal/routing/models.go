// Package routing provides skate route retrieval from external directions
// providers. Providers supply candidate routes as ordered steps with raw
// polyline geometry; everything downstream (context building, scoring,
// matching) consumes the Route model defined here.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/skateroute/skateroute/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the directions provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("directions provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for directions providers.
type Provider interface {
	// GetDirections retrieves route candidates between two points.
	// Returns multiple alternatives when available.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// RouteProfile represents a routing profile (mode of transport).
type RouteProfile string

const (
	// ProfileSkate requests skate-friendly routing. Providers without a
	// native skate profile serve it from their regular cycling profile.
	ProfileSkate RouteProfile = "cycling-regular"
	// ProfileWalk is the pedestrian profile, used for push-walking segments.
	ProfileWalk RouteProfile = "foot-walking"
)

// RouteID is an opaque route identifier assigned when a route candidate is
// created. It is never derived from display fields, so renaming or
// re-timing a route cannot change its identity.
type RouteID string

// NewRouteID generates a fresh opaque route identifier.
func NewRouteID() RouteID {
	return RouteID("rt_" + uuid.New().String())
}

// Step is one geometric/instructional segment of a route, the atomic unit
// of scoring and matching.
type Step struct {
	// Points is the step's polyline. Providers may emit degenerate steps
	// with fewer than two points; downstream code must tolerate them.
	Points []geo.Coordinate

	// DistanceMeters is the traversal distance of the step.
	DistanceMeters float64

	// DurationSeconds is the estimated traversal time.
	DurationSeconds float64

	// Instruction is free-text guidance. Opaque to the core.
	Instruction string
}

// IsDegenerate reports whether the step carries no usable geometry:
// fewer than two polyline points or zero traversal distance.
func (s Step) IsDegenerate() bool {
	return len(s.Points) < 2 || s.DistanceMeters <= 0
}

// Route represents a single route candidate.
type Route struct {
	// ID is the opaque identity of this candidate, assigned at creation.
	ID RouteID

	// Steps is the ordered step sequence.
	Steps []Step

	// DistanceMeters is the total route distance.
	DistanceMeters float64

	// DurationSeconds is the total estimated duration.
	DurationSeconds float64

	// Summary is a human-readable route summary.
	Summary string
}

// DirectionsRequest is the request for computing route candidates.
type DirectionsRequest struct {
	Origin          geo.Coordinate
	Destination     geo.Coordinate
	Profile         RouteProfile
	MaxAlternatives int // Maximum number of alternative routes to return (default: 2)
}

// DirectionsResponse is the response containing route candidates.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Error provides detailed error information from the directions provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
