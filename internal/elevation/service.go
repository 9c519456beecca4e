package elevation

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/pkg/geo"
)

const (
	// brakingGradePct marks a step as a braking zone at or below this grade.
	brakingGradePct = -8.0

	// brakingMinDistanceMeters is the minimum sustained distance for a
	// braking zone.
	brakingMinDistanceMeters = 50.0
)

// ServiceConfig holds configuration for the elevation service.
type ServiceConfig struct {
	// Sampler is the elevation provider.
	Sampler Sampler

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service computes grade summaries for routes.
type Service struct {
	sampler Sampler
	logger  zerolog.Logger
}

// NewService creates a new elevation service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		sampler: cfg.Sampler,
		logger:  cfg.Logger,
	}
}

// SummarizeGrades computes the grade summary for a route. Sampler failures
// fail soft: the affected steps get a neutral zero grade rather than an
// error, so a route without elevation coverage still scores.
func (s *Service) SummarizeGrades(ctx context.Context, route *routing.Route) *GradeSummary {
	grades := make([]float64, len(route.Steps))
	mask := make(map[int]struct{})

	var (
		maxAbsGrade   float64
		maxGrade      float64
		weightedSum   float64
		totalDistance float64
		totalClimb    float64
		totalDescent  float64
	)

	for i, step := range route.Steps {
		if step.IsDegenerate() {
			continue
		}

		grade, rise, ok := s.stepGrade(ctx, step)
		if !ok {
			continue
		}

		grades[i] = grade

		if math.Abs(grade) > maxAbsGrade {
			maxAbsGrade = math.Abs(grade)
			maxGrade = grade
		}
		weightedSum += grade * step.DistanceMeters
		totalDistance += step.DistanceMeters
		if rise > 0 {
			totalClimb += rise
		} else {
			totalDescent += -rise
		}

		if grade <= brakingGradePct && step.DistanceMeters >= brakingMinDistanceMeters {
			mask[i] = struct{}{}
		}
	}

	meanGrade := 0.0
	if totalDistance > 0 {
		meanGrade = weightedSum / totalDistance
	}

	return &GradeSummary{
		StepGradesPct:      grades,
		MaxGradePct:        maxGrade,
		MeanGradePct:       meanGrade,
		TotalClimbMeters:   totalClimb,
		TotalDescentMeters: totalDescent,
		brakingMask:        mask,
	}
}

// stepGrade samples elevations at the step endpoints and returns the mean
// signed grade in percent plus the elevation rise in meters.
func (s *Service) stepGrade(ctx context.Context, step routing.Step) (gradePct, riseMeters float64, ok bool) {
	endpoints := []geo.Coordinate{step.Points[0], step.Points[len(step.Points)-1]}

	elevs, err := s.sampler.Elevations(ctx, endpoints)
	if err != nil || len(elevs) != 2 {
		s.logger.Warn().Err(err).
			Str("sampler", s.sampler.Name()).
			Msg("elevation sampling failed, using neutral grade")
		return 0, 0, false
	}

	rise := elevs[1] - elevs[0]
	grade := rise / step.DistanceMeters * 100

	return grade, rise, true
}

// NewSummaryFromGrades builds a summary directly from per-step grades and
// distances. Used when grades come from a precomputed source (tests,
// offline routes) instead of a live sampler.
func NewSummaryFromGrades(gradesPct, distancesMeters []float64) *GradeSummary {
	mask := make(map[int]struct{})

	var (
		maxAbsGrade   float64
		maxGrade      float64
		weightedSum   float64
		totalDistance float64
		totalClimb    float64
		totalDescent  float64
	)

	for i, grade := range gradesPct {
		dist := 0.0
		if i < len(distancesMeters) {
			dist = distancesMeters[i]
		}
		if dist <= 0 {
			continue
		}

		rise := grade / 100 * dist
		if math.Abs(grade) > maxAbsGrade {
			maxAbsGrade = math.Abs(grade)
			maxGrade = grade
		}
		weightedSum += grade * dist
		totalDistance += dist
		if rise > 0 {
			totalClimb += rise
		} else {
			totalDescent += -rise
		}
		if grade <= brakingGradePct && dist >= brakingMinDistanceMeters {
			mask[i] = struct{}{}
		}
	}

	meanGrade := 0.0
	if totalDistance > 0 {
		meanGrade = weightedSum / totalDistance
	}

	grades := make([]float64, len(gradesPct))
	copy(grades, gradesPct)

	return &GradeSummary{
		StepGradesPct:      grades,
		MaxGradePct:        maxGrade,
		MeanGradePct:       meanGrade,
		TotalClimbMeters:   totalClimb,
		TotalDescentMeters: totalDescent,
		brakingMask:        mask,
	}
}
