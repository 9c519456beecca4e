package models

// RouteInput is a route candidate echoed back by the client when it
// starts or swaps a ride. Clients ride the route exactly as it was
// scored, so the geometry round-trips instead of being refetched.
type RouteInput struct {
	ID    string      `json:"id"`
	Steps []StepInput `json:"steps"`
}

// StepInput is one step of a client-supplied route.
type StepInput struct {
	Points          []Point `json:"points"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Instruction     string  `json:"instruction,omitempty"`
}

// Validate validates the route input.
func (r *RouteInput) Validate() []FieldError {
	var errs []FieldError

	if r.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "route id is required", Code: "REQUIRED"})
	}
	if len(r.Steps) == 0 {
		errs = append(errs, FieldError{Field: "steps", Message: "route must have at least one step", Code: "REQUIRED"})
	}
	for _, s := range r.Steps {
		for _, p := range s.Points {
			if !p.Valid() {
				errs = append(errs, FieldError{Field: "steps", Message: "step point out of bounds", Code: "OUT_OF_RANGE"})
				return errs
			}
		}
	}

	return errs
}

// RideStartRequest is the request body for starting a ride.
type RideStartRequest struct {
	Route *RouteInput `json:"route"`
}

// Validate validates the ride start request.
func (r *RideStartRequest) Validate() []FieldError {
	if r.Route == nil {
		return []FieldError{{Field: "route", Message: "route is required", Code: "REQUIRED"}}
	}
	return r.Route.Validate()
}

// RideStartResponse is the response after starting a ride.
type RideStartResponse struct {
	RideID  string `json:"rideId"`
	RouteID string `json:"routeId"`
}

// PositionFixInput is one GPS fix in an ingest batch.
type PositionFixInput struct {
	Point          Point     `json:"point"`
	HeadingDegrees float64   `json:"headingDegrees"`
	Timestamp      Timestamp `json:"timestamp"`
}

// RidePositionsRequest is a batch of position fixes.
type RidePositionsRequest struct {
	Fixes []PositionFixInput `json:"fixes"`
}

// RoughnessSampleInput is one roughness observation in an ingest batch.
type RoughnessSampleInput struct {
	Point     Point     `json:"point"`
	RMS       float64   `json:"rms"`
	Timestamp Timestamp `json:"timestamp"`
}

// RideRoughnessRequest is a batch of roughness samples.
type RideRoughnessRequest struct {
	Samples []RoughnessSampleInput `json:"samples"`
}

// RideSwapRequest is the request body for swapping the active route.
type RideSwapRequest struct {
	Route *RouteInput `json:"route"`
}

// MatchView is the read model of the latest map match.
type MatchView struct {
	StepIndex      int     `json:"stepIndex"`
	Snapped        Point   `json:"snapped"`
	DistanceMeters float64 `json:"distanceMeters"`
	BearingDegrees float64 `json:"bearingDegrees"`
	ProgressInStep float64 `json:"progressInStep"`
	Confidence     float64 `json:"confidence"`
}

// RideStateResponse reports the live state of a ride.
type RideStateResponse struct {
	RideID              string     `json:"rideId"`
	RouteID             string     `json:"routeId"`
	Match               *MatchView `json:"match,omitempty"`
	RerouteRecommended  bool       `json:"rerouteRecommended"`
	OffRouteMeters      *float64   `json:"offRouteMeters,omitempty"`
	HeadingDeltaDegrees *float64   `json:"headingDeltaDegrees,omitempty"`
}
