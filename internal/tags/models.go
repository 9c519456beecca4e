// Package tags provides per-step attribute lookup: lane infrastructure,
// surface quality, hazards, and lighting. Tag data comes from an external
// attribute provider and is cached per route so the live loop never
// re-triggers an IO-bound fetch.
package tags

import (
	"context"
	"errors"

	"github.com/skateroute/skateroute/internal/routing"
)

// ErrTagsUnavailable indicates the attribute provider could not serve tags
// for a step. Callers treat this as fail-soft and fall back to ZeroTags.
var ErrTagsUnavailable = errors.New("step tags unavailable")

// Lighting describes the lighting level of a step.
type Lighting string

const (
	LightingGood Lighting = "good"
	LightingPoor Lighting = "poor"
	LightingNone Lighting = "none"
)

// StepTags holds the raw attribute facts for one route step.
type StepTags struct {
	// ProtectedLane is true when the step has a physically separated lane.
	ProtectedLane bool `json:"protectedLane"`

	// PaintedLane is true when the step has a painted (unprotected) lane.
	PaintedLane bool `json:"paintedLane"`

	// RoughSurface flags a surface known to be rough (cobbles, gravel, bad asphalt).
	RoughSurface bool `json:"roughSurface"`

	// HazardCount is the number of mapped hazards on the step (tram rails,
	// drain grates, curb cuts).
	HazardCount int `json:"hazardCount"`

	// Surface is the raw surface class string (e.g. "asphalt", "sett").
	Surface string `json:"surface"`

	// HighwayClass is the raw highway class string (e.g. "cycleway", "residential").
	HighwayClass string `json:"highwayClass"`

	// Lighting is the lighting level of the step.
	Lighting Lighting `json:"lighting"`

	// FreshnessDays is the age of the attribute data in days.
	FreshnessDays int `json:"freshnessDays"`
}

// PoorLighting reports whether the step is poorly lit or unlit.
func (t StepTags) PoorLighting() bool {
	return t.Lighting == LightingPoor || t.Lighting == LightingNone
}

// Fresh reports whether the attribute data is less than three days old.
func (t StepTags) Fresh() bool {
	return t.FreshnessDays < 3
}

// ZeroTags returns the fail-soft default used when the provider cannot
// serve tags for a step: all flags false, all counts zero.
func ZeroTags() StepTags {
	return StepTags{}
}

// Provider defines the interface for step attribute providers.
// Implementations may be IO-bound; callers must cache results.
type Provider interface {
	// Tags returns the attributes for one step of a route.
	Tags(ctx context.Context, routeID routing.RouteID, stepIndex int) (StepTags, error)
	// Name returns the provider identifier for logging.
	Name() string
}
