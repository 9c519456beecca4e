// Package steps builds per-step riding context for a route: turn
// penalties from geometry, lane and hazard adjustments from attribute
// tags, and grade facts from the route's elevation summary.
package steps

import (
	"github.com/skateroute/skateroute/internal/tags"
)

// StepContext holds the riding context of one route step. Contexts are
// index-aligned with the route's steps: a degenerate step still produces
// an entry (with zero penalties) so indexes never shift.
type StepContext struct {
	// StepIndex is the position in the route's step sequence. Stable for
	// the lifetime of one route object.
	StepIndex int `json:"stepIndex"`

	// GradePercent is the signed grade of the step (positive = uphill).
	GradePercent float64 `json:"gradePercent"`

	// RoughnessRMS is the RMS of vertical acceleration observed on this
	// step. Nil until a live sample updates it.
	RoughnessRMS *float64 `json:"roughnessRMS,omitempty"`

	// BrakingZone is true when the step is a sustained steep downhill
	// (grade <= -8% over >= 50m).
	BrakingZone bool `json:"brakingZone"`

	// LaneBonus is the lane-infrastructure adjustment, in [-0.08, 0.30].
	LaneBonus float64 `json:"laneBonus"`

	// TurnPenalty is the turn-sharpness penalty, in [0, 0.30].
	TurnPenalty float64 `json:"turnPenalty"`

	// HazardPenalty is the hazard adjustment, in [-0.03, 0.60].
	HazardPenalty float64 `json:"hazardPenalty"`

	// DistanceMeters is the traversal distance of the step.
	DistanceMeters float64 `json:"distanceMeters"`

	// Degenerate is true for steps with no usable geometry. Degenerate
	// steps carry zero penalties and are excluded from route aggregates.
	Degenerate bool `json:"degenerate"`

	// BearingDegrees is the coarse bearing of the step (first to last
	// polyline point). Zero for degenerate steps.
	BearingDegrees float64 `json:"bearingDegrees"`

	// Tags holds the raw attribute facts the adjustments were derived from.
	Tags tags.StepTags `json:"tags"`
}
