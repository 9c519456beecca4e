// Package segments maintains rolling roughness aggregates per route step.
// Aggregates compound across rides: they are written by the live ride
// loop, read back as freshness input by the scorer, and persisted through
// a repository so they outlive individual routes and process restarts.
package segments

import (
	"context"
	"time"

	"github.com/skateroute/skateroute/internal/routing"
)

// Key identifies one segment aggregate: a step of a specific route.
type Key struct {
	RouteID   routing.RouteID `json:"routeId"`
	StepIndex int             `json:"stepIndex"`
}

// Aggregate holds the rolling statistics for one segment. Entries are
// mutated in place by writes and never deleted; trust in an aggregate is
// expressed through its confidence, which decays with age.
type Aggregate struct {
	// MeanRoughness is the exponential moving average of roughness samples.
	MeanRoughness float64 `json:"meanRoughness"`

	// SampleCount is the number of samples folded into the mean.
	SampleCount int `json:"sampleCount"`

	// LastSeen is when the segment last received a sample.
	LastSeen time.Time `json:"lastSeen"`

	// Confidence in [0,1] combines sample volume and recency.
	Confidence float64 `json:"confidence"`
}

// Repository persists segment aggregates across process restarts.
type Repository interface {
	// Load returns all persisted aggregates.
	Load(ctx context.Context) (map[Key]Aggregate, error)
	// Save upserts the given aggregates.
	Save(ctx context.Context, items map[Key]Aggregate) error
}
