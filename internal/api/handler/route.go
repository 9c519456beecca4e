// Package handler provides HTTP handlers for the SkateRoute API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/api/models"
	"github.com/skateroute/skateroute/internal/api/response"
	"github.com/skateroute/skateroute/internal/elevation"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/scoring"
	"github.com/skateroute/skateroute/internal/segments"
	"github.com/skateroute/skateroute/internal/steps"
	"github.com/skateroute/skateroute/pkg/geo"
)

// RouteHandlerConfig holds dependencies for the route handler.
type RouteHandlerConfig struct {
	Routing   *routing.Service
	Elevation *elevation.Service
	Builder   *steps.Builder
	Scorer    *scoring.Scorer
	Store     *segments.Store
	Logger    zerolog.Logger
}

// RouteHandler handles route scoring endpoints.
type RouteHandler struct {
	routing   *routing.Service
	elevation *elevation.Service
	builder   *steps.Builder
	scorer    *scoring.Scorer
	store     *segments.Store
	logger    zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(cfg RouteHandlerConfig) *RouteHandler {
	return &RouteHandler{
		routing:   cfg.Routing,
		elevation: cfg.Elevation,
		builder:   cfg.Builder,
		scorer:    cfg.Scorer,
		store:     cfg.Store,
		logger:    cfg.Logger,
	}
}

// ScoreRoutes handles POST /v1/routes:score. It fetches route candidates
// between the given points, scores every step under the requested ride
// mode, and returns the candidates ordered best first.
func (h *RouteHandler) ScoreRoutes(w http.ResponseWriter, r *http.Request) {
	var req models.RouteScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrs)
		return
	}

	mode, err := scoring.ParseMode(req.Mode)
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "mode", Message: err.Error(), Code: "UNKNOWN_MODE"},
		})
		return
	}

	maxAlternatives := 2
	if req.MaxAlternatives != nil {
		maxAlternatives = *req.MaxAlternatives
	}

	directions, err := h.routing.GetDirections(r.Context(), routing.DirectionsRequest{
		Origin:          geo.NewCoordinate(req.Origin.Lat, req.Origin.Lon),
		Destination:     geo.NewCoordinate(req.Destination.Lat, req.Destination.Lon),
		Profile:         routing.ProfileSkate,
		MaxAlternatives: maxAlternatives,
	})
	if err != nil {
		h.writeDirectionsError(w, r, err)
		return
	}

	scored := make([]models.ScoredRoute, 0, len(directions.Routes))
	for i := range directions.Routes {
		route := &directions.Routes[i]

		view, err := h.scoreRoute(r, route, mode)
		if err != nil {
			h.logger.Error().Err(err).Str("route_id", string(route.ID)).Msg("scoring route candidate")
			response.InternalError(w, r, "failed to score route")
			return
		}
		scored = append(scored, view)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	response.JSON(w, r, http.StatusOK, models.RouteScoreResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Mode:        string(mode),
		Routes:      scored,
	})
}

// scoreRoute builds step contexts for one candidate, overlays stored
// roughness aggregates, and applies the scorer.
func (h *RouteHandler) scoreRoute(r *http.Request, route *routing.Route, mode scoring.RideMode) (models.ScoredRoute, error) {
	summary := h.elevation.SummarizeGrades(r.Context(), route)

	contexts, err := h.builder.Build(r.Context(), route, summary)
	if err != nil {
		return models.ScoredRoute{}, err
	}

	if h.store != nil {
		for i := range contexts {
			if contexts[i].RoughnessRMS == nil {
				contexts[i].RoughnessRMS = h.store.MeanRoughness(segments.Key{
					RouteID:   route.ID,
					StepIndex: contexts[i].StepIndex,
				})
			}
		}
	}

	routeScore, err := h.scorer.ScoreRoute(contexts, summary, mode)
	if err != nil {
		return models.ScoredRoute{}, err
	}

	view := models.ScoredRoute{
		ID:              string(route.ID),
		Summary:         route.Summary,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Score:           routeScore.Aggregate,
		Steps:           make([]models.ScoredStep, len(routeScore.Steps)),
	}

	for i, step := range routeScore.Steps {
		points := make([]models.Point, len(route.Steps[i].Points))
		for j, p := range route.Steps[i].Points {
			points[j] = models.Point{Lat: p.Lat, Lon: p.Lon}
		}

		view.Steps[i] = models.ScoredStep{
			StepIndex:      step.StepIndex,
			Score:          step.Score,
			Confidence:     step.Confidence,
			Degenerate:     step.Degenerate,
			GradePercent:   contexts[i].GradePercent,
			BrakingZone:    contexts[i].BrakingZone,
			DistanceMeters: route.Steps[i].DistanceMeters,
			Instruction:    route.Steps[i].Instruction,
			Points:         points,
		}
	}

	return view, nil
}

// RouteSegments handles GET /v1/routes/{routeId}/segments. It returns
// the rolling roughness aggregates collected for the route's steps.
func (h *RouteHandler) RouteSegments(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")
	if routeID == "" {
		response.BadRequest(w, r, "missing route id", nil)
		return
	}

	aggs := h.store.RouteAggregates(routing.RouteID(routeID))

	views := make([]models.SegmentAggregateView, 0, len(aggs))
	for stepIndex, agg := range aggs {
		views = append(views, models.SegmentAggregateView{
			StepIndex:     stepIndex,
			MeanRoughness: agg.MeanRoughness,
			SampleCount:   agg.SampleCount,
			Confidence:    agg.Confidence,
			LastSeen:      models.Timestamp(agg.LastSeen),
			Stale:         agg.Confidence < h.store.StaleThreshold(),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].StepIndex < views[j].StepIndex })

	response.JSON(w, r, http.StatusOK, models.RouteSegmentsResponse{
		RouteID:  routeID,
		Segments: views,
	})
}

// writeDirectionsError maps provider errors onto problem responses.
func (h *RouteHandler) writeDirectionsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, "coordinates are not routable", nil)
	case errors.Is(err, routing.ErrNoRouteFound):
		response.NotFound(w, r, "no route found between the given points")
	case errors.Is(err, routing.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "directions provider quota exceeded")
	case errors.Is(err, routing.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "directions provider unavailable")
	default:
		h.logger.Error().Err(err).Msg("directions request failed")
		response.InternalError(w, r, "failed to fetch route candidates")
	}
}
