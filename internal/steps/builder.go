package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/elevation"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/tags"
	"github.com/skateroute/skateroute/pkg/geo"
)

// Turn penalty buckets: a step function of the absolute bearing change
// from the previous step. Buckets rather than a continuous curve so that
// small GPS-noise bearing wobble cannot flip a score.
const (
	turnBucket50  = 0.05
	turnBucket70  = 0.12
	turnBucket90  = 0.20
	turnBucket110 = 0.30
)

// Lane and hazard adjustment terms.
const (
	laneBonusProtected  = 0.30
	laneBonusPainted    = 0.12
	lightingAdjustment  = 0.05
	freshnessAdjustment = 0.03

	hazardRoughSurface = 0.15
	hazardPerCount     = 0.08
	hazardCountCap     = 0.40
)

// TagSource supplies cached step attributes. Satisfied by *tags.Service.
type TagSource interface {
	Tags(ctx context.Context, routeID routing.RouteID, stepIndex int) tags.StepTags
}

// BuilderConfig holds configuration for the context builder.
type BuilderConfig struct {
	// Tags is the attribute source (required).
	Tags TagSource

	// Logger for builder operations.
	Logger zerolog.Logger
}

// Builder turns a route's ordered steps plus attribute tags into an
// index-aligned StepContext slice.
type Builder struct {
	tags   TagSource
	logger zerolog.Logger
}

// NewBuilder creates a new step context builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{
		tags:   cfg.Tags,
		logger: cfg.Logger,
	}
}

// Build produces one StepContext per route step, index-aligned with the
// input. summary may be nil when no elevation data is available; grades
// then stay neutral. A non-nil summary whose step count does not match
// the route is a programmer error and fails loudly.
//
// Build honors ctx cancellation between steps so work for an abandoned
// route is dropped promptly.
func (b *Builder) Build(ctx context.Context, route *routing.Route, summary *elevation.GradeSummary) ([]StepContext, error) {
	if summary != nil && summary.StepCount() != len(route.Steps) {
		return nil, fmt.Errorf("grade summary covers %d steps, route has %d", summary.StepCount(), len(route.Steps))
	}

	contexts := make([]StepContext, len(route.Steps))
	prevBearing := math.NaN()

	for i, step := range route.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sc := StepContext{
			StepIndex:      i,
			DistanceMeters: step.DistanceMeters,
		}

		if step.IsDegenerate() {
			// Degenerate steps keep their slot with zero penalties so
			// indexes stay aligned with the route.
			sc.Degenerate = true
			contexts[i] = sc
			continue
		}

		bearing := geo.BearingDegrees(step.Points[0], step.Points[len(step.Points)-1])
		sc.BearingDegrees = bearing
		if !math.IsNaN(prevBearing) {
			sc.TurnPenalty = turnPenalty(geo.AngleDiffDegrees(bearing, prevBearing))
		}
		prevBearing = bearing

		t := b.tags.Tags(ctx, route.ID, i)
		sc.Tags = t
		sc.LaneBonus = laneBonus(t)
		sc.HazardPenalty = hazardPenalty(t)

		if summary != nil {
			sc.GradePercent = summary.StepGradesPct[i]
			sc.BrakingZone = summary.InBrakingZone(i)
		}

		contexts[i] = sc
	}

	return contexts, nil
}

// turnPenalty maps an absolute bearing change in degrees to its bucket.
func turnPenalty(angleDiff float64) float64 {
	switch {
	case angleDiff < 50:
		return 0
	case angleDiff < 70:
		return turnBucket50
	case angleDiff < 90:
		return turnBucket70
	case angleDiff < 110:
		return turnBucket90
	default:
		return turnBucket110
	}
}

// laneBonus computes the lane-infrastructure adjustment. Fresh data nudges
// the bonus down by a small fixed amount; the matching nudge in
// hazardPenalty makes the freshness handling deliberately asymmetric.
func laneBonus(t tags.StepTags) float64 {
	bonus := 0.0
	switch {
	case t.ProtectedLane:
		bonus = laneBonusProtected
	case t.PaintedLane:
		bonus = laneBonusPainted
	}
	if t.PoorLighting() {
		bonus -= lightingAdjustment
	}
	if t.Fresh() {
		bonus -= freshnessAdjustment
	}
	return bonus
}

// hazardPenalty computes the hazard adjustment from surface, hazard count,
// lighting, and data freshness.
func hazardPenalty(t tags.StepTags) float64 {
	penalty := 0.0
	if t.RoughSurface {
		penalty += hazardRoughSurface
	}
	penalty += math.Min(hazardCountCap, hazardPerCount*float64(t.HazardCount))
	if t.PoorLighting() {
		penalty += lightingAdjustment
	}
	if t.Fresh() {
		penalty -= freshnessAdjustment
	}
	return penalty
}
