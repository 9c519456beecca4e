// Package scoring computes bounded skateability scores for route steps.
// A score is a [0,1] composite of roughness, grade, crossings, lane
// infrastructure, and hazards, weighted by the rider's chosen mode.
package scoring

import (
	"errors"
	"fmt"
)

// ErrIndexMismatch indicates step contexts and grade data disagree on the
// route's step count. This is a programmer error, never coerced.
var ErrIndexMismatch = errors.New("step context and grade summary indexes do not align")

// RideMode selects the weight vector used for scoring.
type RideMode string

const (
	// ModeSmoothest strongly favors smooth surfaces.
	ModeSmoothest RideMode = "smoothest"
	// ModeChillFewCrossings penalizes crossings and turns harder.
	ModeChillFewCrossings RideMode = "chillFewCrossings"
	// ModeFastMildRoughness tolerates roughness and rewards descents.
	ModeFastMildRoughness RideMode = "fastMildRoughness"
	// ModeNightSafe caps descent reward for night riding.
	ModeNightSafe RideMode = "nightSafe"
	// ModeTrickSpotCrawl is the neutral low-bias exploration mode.
	ModeTrickSpotCrawl RideMode = "trickSpotCrawl"
)

// Modes lists all ride modes, for iteration in tests and API metadata.
func Modes() []RideMode {
	return []RideMode{
		ModeSmoothest,
		ModeChillFewCrossings,
		ModeFastMildRoughness,
		ModeNightSafe,
		ModeTrickSpotCrawl,
	}
}

// ParseMode validates a mode string from the API.
func ParseMode(s string) (RideMode, error) {
	switch RideMode(s) {
	case ModeSmoothest, ModeChillFewCrossings, ModeFastMildRoughness, ModeNightSafe, ModeTrickSpotCrawl:
		return RideMode(s), nil
	default:
		return "", fmt.Errorf("unknown ride mode %q", s)
	}
}

// Weights is the per-mode weight vector. All factor weights are
// non-negative; negativity would break the roughness monotonicity
// guarantee.
type Weights struct {
	Roughness float64 // w_r
	Uphill    float64 // w_u
	Downhill  float64 // w_g
	Crossing  float64 // w_c
	Lane      float64 // w_b
	Hazard    float64 // w_h
	Bias      float64
}

// baseWeights is the "normal" column of the mode table.
var baseWeights = Weights{
	Roughness: 0.50,
	Uphill:    0.30,
	Downhill:  0.15,
	Crossing:  0.20,
	Lane:      1.00,
	Hazard:    1.00,
}

// WeightsFor returns the weight vector for a ride mode. Unknown modes get
// the trick-spot-crawl weights; mode strings are validated at the API
// boundary via ParseMode.
func WeightsFor(mode RideMode) Weights {
	w := baseWeights
	switch mode {
	case ModeSmoothest:
		w.Roughness = 0.70
		w.Downhill = 0.05
		w.Bias = 0.10
	case ModeChillFewCrossings:
		w.Crossing = 0.40
		w.Bias = 0.05
	case ModeFastMildRoughness:
		w.Roughness = 0.30 // base reduced ~40%
		w.Downhill = 0.30
		w.Bias = -0.05
	case ModeNightSafe:
		w.Downhill = 0.08 // capped: descents are not a reward at night
		w.Bias = 0.08
	case ModeTrickSpotCrawl:
		w.Bias = -0.10
	default:
		w.Bias = -0.10
	}
	return w
}

// StepScore is the scored result for one step.
type StepScore struct {
	// StepIndex mirrors the step's position in the route.
	StepIndex int `json:"stepIndex"`

	// Score is the bounded [0,1] skateability score.
	Score float64 `json:"score"`

	// Confidence reflects data completeness: it drops when no live
	// roughness sample exists or the attribute data is stale.
	Confidence float64 `json:"confidence"`

	// Degenerate marks steps excluded from the route aggregate.
	Degenerate bool `json:"degenerate"`
}

// RouteScore is the scored result for a whole route.
type RouteScore struct {
	Mode RideMode `json:"mode"`

	// Steps holds per-step scores, index-aligned with the route.
	Steps []StepScore `json:"steps"`

	// Aggregate is the arithmetic mean of non-degenerate step scores.
	Aggregate float64 `json:"aggregate"`
}
