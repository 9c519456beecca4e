package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/api/models"
	"github.com/skateroute/skateroute/internal/api/response"
	"github.com/skateroute/skateroute/internal/ride"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/pkg/geo"
)

// RideHandler handles live ride endpoints.
type RideHandler struct {
	manager *ride.Manager
	logger  zerolog.Logger
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(manager *ride.Manager, logger zerolog.Logger) *RideHandler {
	return &RideHandler{manager: manager, logger: logger}
}

// StartRide handles POST /v1/rides. The client echoes back the scored
// route it is about to ride.
func (h *RideHandler) StartRide(w http.ResponseWriter, r *http.Request) {
	var req models.RideStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrs)
		return
	}

	route := routeFromInput(req.Route)

	session, err := h.manager.StartRide(r.Context(), route)
	if err != nil {
		response.BadRequest(w, r, "route cannot be ridden", nil)
		return
	}

	response.Created(w, r, "/v1/rides/"+session.ID(), models.RideStartResponse{
		RideID:  session.ID(),
		RouteID: string(route.ID),
	})
}

// PushPositions handles POST /v1/rides/{rideId}/positions.
func (h *RideHandler) PushPositions(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.RidePositionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if len(req.Fixes) == 0 {
		response.BadRequest(w, r, "at least one fix is required", nil)
		return
	}

	for _, fix := range req.Fixes {
		err := session.PushFix(ride.PositionFix{
			Point:          geo.NewCoordinate(fix.Point.Lat, fix.Point.Lon),
			HeadingDegrees: fix.HeadingDegrees,
			Timestamp:      fix.Timestamp.Time(),
		})
		if errors.Is(err, ride.ErrRideClosed) {
			response.Conflict(w, r, "ride has ended")
			return
		}
	}

	response.Accepted(w, r, nil)
}

// PushRoughness handles POST /v1/rides/{rideId}/roughness.
func (h *RideHandler) PushRoughness(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.RideRoughnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if len(req.Samples) == 0 {
		response.BadRequest(w, r, "at least one sample is required", nil)
		return
	}

	for _, sample := range req.Samples {
		err := session.PushRoughness(ride.RoughnessSample{
			Point:     geo.NewCoordinate(sample.Point.Lat, sample.Point.Lon),
			RMS:       sample.RMS,
			Timestamp: sample.Timestamp.Time(),
		})
		if errors.Is(err, ride.ErrRideClosed) {
			response.Conflict(w, r, "ride has ended")
			return
		}
	}

	response.Accepted(w, r, nil)
}

// GetState handles GET /v1/rides/{rideId}. It reports the latest match
// and whether a reroute is recommended.
func (h *RideHandler) GetState(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	state := models.RideStateResponse{
		RideID:  session.ID(),
		RouteID: string(session.RouteID()),
	}

	if match, ok := session.LastMatch(); ok {
		state.Match = &models.MatchView{
			StepIndex:      match.StepIndex,
			Snapped:        models.Point{Lat: match.Snapped.Lat, Lon: match.Snapped.Lon},
			DistanceMeters: match.DistanceMeters,
			BearingDegrees: match.BearingDegrees,
			ProgressInStep: match.ProgressInStep,
			Confidence:     match.Confidence,
		}
	}

	select {
	case signal := <-session.Reroutes():
		state.RerouteRecommended = true
		state.OffRouteMeters = &signal.OffRouteMeters
		state.HeadingDeltaDegrees = &signal.HeadingDeltaDegrees
	default:
	}

	response.JSON(w, r, http.StatusOK, state)
}

// SwapRoute handles PUT /v1/rides/{rideId}/route after a reroute.
func (h *RideHandler) SwapRoute(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.RideSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if req.Route == nil {
		response.BadRequest(w, r, "route is required", nil)
		return
	}
	if fieldErrs := req.Route.Validate(); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrs)
		return
	}

	session.SwapRoute(routeFromInput(req.Route))
	response.NoContent(w, r)
}

// EndRide handles DELETE /v1/rides/{rideId}.
func (h *RideHandler) EndRide(w http.ResponseWriter, r *http.Request) {
	rideID := chi.URLParam(r, "rideId")

	if err := h.manager.EndRide(rideID); err != nil {
		response.NotFound(w, r, "ride not found")
		return
	}
	response.NoContent(w, r)
}

func (h *RideHandler) session(w http.ResponseWriter, r *http.Request) (*ride.Session, bool) {
	rideID := chi.URLParam(r, "rideId")

	session, err := h.manager.Get(rideID)
	if err != nil {
		response.NotFound(w, r, "ride not found")
		return nil, false
	}
	return session, true
}

// routeFromInput converts the client-echoed route into the routing model.
func routeFromInput(in *models.RouteInput) *routing.Route {
	route := &routing.Route{
		ID:    routing.RouteID(in.ID),
		Steps: make([]routing.Step, len(in.Steps)),
	}

	for i, s := range in.Steps {
		points := make([]geo.Coordinate, len(s.Points))
		for j, p := range s.Points {
			points[j] = geo.NewCoordinate(p.Lat, p.Lon)
		}
		route.Steps[i] = routing.Step{
			Points:          points,
			DistanceMeters:  s.DistanceMeters,
			DurationSeconds: s.DurationSeconds,
			Instruction:     s.Instruction,
		}
		route.DistanceMeters += s.DistanceMeters
		route.DurationSeconds += s.DurationSeconds
	}

	return route
}
