package models

// RouteScoreRequest is the request body for scoring route candidates.
type RouteScoreRequest struct {
	Origin      *Point `json:"origin"`
	Destination *Point `json:"destination"`

	// Mode is the ride mode to score under (e.g. "smoothest").
	Mode string `json:"mode"`

	// MaxAlternatives caps the number of route candidates (default 2).
	MaxAlternatives *int `json:"maxAlternatives,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// Validate validates the route score request.
func (r *RouteScoreRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Origin == nil {
		errs = append(errs, FieldError{Field: "origin", Message: "origin is required", Code: "REQUIRED"})
	} else if !r.Origin.Valid() {
		errs = append(errs, FieldError{Field: "origin", Message: "origin is out of bounds", Code: "OUT_OF_RANGE"})
	}

	if r.Destination == nil {
		errs = append(errs, FieldError{Field: "destination", Message: "destination is required", Code: "REQUIRED"})
	} else if !r.Destination.Valid() {
		errs = append(errs, FieldError{Field: "destination", Message: "destination is out of bounds", Code: "OUT_OF_RANGE"})
	}

	if r.Mode == "" {
		errs = append(errs, FieldError{Field: "mode", Message: "mode is required", Code: "REQUIRED"})
	}

	if r.MaxAlternatives != nil && (*r.MaxAlternatives < 1 || *r.MaxAlternatives > 5) {
		errs = append(errs, FieldError{Field: "maxAlternatives", Message: "must be between 1 and 5", Code: "OUT_OF_RANGE"})
	}

	return errs
}

// RouteScoreResponse is the response for route scoring.
type RouteScoreResponse struct {
	GeneratedAt Timestamp     `json:"generatedAt"`
	Mode        string        `json:"mode"`
	Routes      []ScoredRoute `json:"routes"`
}

// ScoredRoute is one scored route candidate.
type ScoredRoute struct {
	ID              string       `json:"id"`
	Summary         string       `json:"summary,omitempty"`
	DistanceMeters  float64      `json:"distanceMeters"`
	DurationSeconds float64      `json:"durationSeconds"`
	Score           float64      `json:"score"`
	Steps           []ScoredStep `json:"steps"`
}

// ScoredStep is the per-step scoring detail for map rendering.
type ScoredStep struct {
	StepIndex      int     `json:"stepIndex"`
	Score          float64 `json:"score"`
	Confidence     float64 `json:"confidence"`
	Degenerate     bool    `json:"degenerate,omitempty"`
	GradePercent   float64 `json:"gradePercent"`
	BrakingZone    bool    `json:"brakingZone,omitempty"`
	DistanceMeters float64 `json:"distanceMeters"`
	Instruction    string  `json:"instruction,omitempty"`
	Points         []Point `json:"points"`
}

// SegmentAggregateView is the read model for one segment aggregate.
type SegmentAggregateView struct {
	StepIndex     int       `json:"stepIndex"`
	MeanRoughness float64   `json:"meanRoughness"`
	SampleCount   int       `json:"sampleCount"`
	Confidence    float64   `json:"confidence"`
	LastSeen      Timestamp `json:"lastSeen"`
	Stale         bool      `json:"stale"`
}

// RouteSegmentsResponse lists the segment aggregates of one route.
type RouteSegmentsResponse struct {
	RouteID  string                 `json:"routeId"`
	Segments []SegmentAggregateView `json:"segments"`
}
