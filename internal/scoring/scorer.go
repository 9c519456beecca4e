package scoring

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/elevation"
	"github.com/skateroute/skateroute/internal/steps"
)

// Normalization caps. Values at or beyond a cap saturate at 1.
const (
	// roughnessNormCap is the vertical-acceleration RMS (m/s^2) treated
	// as fully rough.
	roughnessNormCap = 2.5

	// gradeNormCapPct is the absolute grade treated as fully steep.
	gradeNormCapPct = 12.0
)

// Confidence deductions for missing or stale inputs.
const (
	confNoRoughnessSample = 0.3
	confStaleTags         = 0.1
)

// ScorerConfig holds configuration for the scorer.
type ScorerConfig struct {
	// Logger for scorer operations.
	Logger zerolog.Logger
}

// Scorer computes skateability scores from step contexts.
type Scorer struct {
	logger zerolog.Logger
}

// NewScorer creates a new scorer.
func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{logger: cfg.Logger}
}

// ScoreRoute scores every step of a route under the given mode and
// returns the per-step scores plus the route aggregate.
//
// Missing optional data (no roughness sample, neutral grades) lowers
// confidence but never errors. A step count mismatch between contexts and
// a non-nil grade summary is a programmer error and fails loudly.
func (s *Scorer) ScoreRoute(contexts []steps.StepContext, summary *elevation.GradeSummary, mode RideMode) (*RouteScore, error) {
	if summary != nil && summary.StepCount() != len(contexts) {
		return nil, fmt.Errorf("%w: %d contexts, %d grades", ErrIndexMismatch, len(contexts), summary.StepCount())
	}

	weights := WeightsFor(mode)

	result := &RouteScore{
		Mode:  mode,
		Steps: make([]StepScore, len(contexts)),
	}

	var sum float64
	var counted int

	for i, sc := range contexts {
		if sc.StepIndex != i {
			return nil, fmt.Errorf("%w: context at position %d has step index %d", ErrIndexMismatch, i, sc.StepIndex)
		}

		step := s.scoreStep(sc, weights)
		result.Steps[i] = step

		if !step.Degenerate {
			sum += step.Score
			counted++
		}
	}

	// Bias is a route-level mode adjustment, not a per-step term: applying
	// it per step would let a high-bias mode outrank a low-bias mode on a
	// step the low-bias mode objectively prefers.
	if counted > 0 {
		result.Aggregate = clamp01(sum/float64(counted) + weights.Bias)
	}

	s.logger.Debug().
		Str("mode", string(mode)).
		Int("steps", len(contexts)).
		Float64("aggregate", result.Aggregate).
		Msg("scored route")

	return result, nil
}

// scoreStep applies the weighted composite formula to one step.
func (s *Scorer) scoreStep(sc steps.StepContext, w Weights) StepScore {
	if sc.Degenerate {
		return StepScore{StepIndex: sc.StepIndex, Degenerate: true}
	}

	roughness := 0.0
	confidence := 1.0
	if sc.RoughnessRMS != nil {
		roughness = normalize(*sc.RoughnessRMS, roughnessNormCap)
	} else {
		// Unknown roughness is zero-weighted, not an error.
		confidence -= confNoRoughnessSample
	}
	if !sc.Tags.Fresh() {
		confidence -= confStaleTags
	}

	uphill := 0.0
	downhill := 0.0
	if sc.GradePercent > 0 {
		uphill = normalize(sc.GradePercent, gradeNormCapPct)
	} else if sc.GradePercent < 0 {
		downhill = normalize(-sc.GradePercent, gradeNormCapPct)
	}
	// A braking zone is a hazard, not a reward: its descent term earns nothing.
	if sc.BrakingZone {
		downhill = 0
	}

	raw := 1 -
		w.Roughness*roughness -
		w.Uphill*uphill +
		w.Downhill*downhill -
		w.Crossing*sc.TurnPenalty +
		w.Lane*sc.LaneBonus -
		w.Hazard*sc.HazardPenalty

	return StepScore{
		StepIndex:  sc.StepIndex,
		Score:      clamp01(raw),
		Confidence: clamp01(confidence),
	}
}

func normalize(v, limit float64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= limit {
		return 1
	}
	return v / limit
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
