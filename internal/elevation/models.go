// Package elevation derives per-route grade statistics from an external
// elevation sampler. A GradeSummary is computed once per route and is
// immutable afterwards.
package elevation

import (
	"context"

	"github.com/skateroute/skateroute/pkg/geo"
)

// Sampler provides elevations (meters above sea level) for coordinates.
// Implementations may be IO-bound.
type Sampler interface {
	// Elevations returns one elevation per input coordinate, in order.
	Elevations(ctx context.Context, points []geo.Coordinate) ([]float64, error)
	// Name returns the provider identifier for logging.
	Name() string
}

// GradeSummary holds per-route grade statistics, index-aligned with the
// route's steps. Immutable after creation.
type GradeSummary struct {
	// StepGradesPct holds the signed mean grade of each step in percent.
	// Positive is uphill in travel direction.
	StepGradesPct []float64

	// MaxGradePct is the steepest absolute grade across all steps.
	MaxGradePct float64

	// MeanGradePct is the distance-weighted mean grade of the route.
	MeanGradePct float64

	// TotalClimbMeters is the total elevation gained.
	TotalClimbMeters float64

	// TotalDescentMeters is the total elevation lost (positive value).
	TotalDescentMeters float64

	// brakingMask holds the step indexes marked as braking zones.
	brakingMask map[int]struct{}
}

// InBrakingZone reports whether the given step is a sustained steep
// downhill requiring cautionary treatment.
func (g *GradeSummary) InBrakingZone(stepIndex int) bool {
	_, ok := g.brakingMask[stepIndex]
	return ok
}

// BrakingSteps returns the step indexes in the braking mask. The order is
// unspecified.
func (g *GradeSummary) BrakingSteps() []int {
	out := make([]int, 0, len(g.brakingMask))
	for idx := range g.brakingMask {
		out = append(out, idx)
	}
	return out
}

// StepCount returns the number of steps the summary covers.
func (g *GradeSummary) StepCount() int {
	return len(g.StepGradesPct)
}
