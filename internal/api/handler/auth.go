package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/skateroute/skateroute/internal/api/response"
	"github.com/skateroute/skateroute/internal/auth"
)

// AuthHandler handles token issuance. Riders are anonymous: a device
// registers once and receives a rider ID plus a bearer token for it.
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// tokenRequest is the request body for token issuance.
type tokenRequest struct {
	// RiderID re-issues a token for an existing rider; empty registers a
	// new one.
	RiderID string `json:"riderId,omitempty"`
}

// tokenResponse is the response after successful token issuance.
type tokenResponse struct {
	RiderID     string `json:"riderId"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// IssueToken handles POST /v1/auth/token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, r, "invalid request body", nil)
			return
		}
	}

	riderID := req.RiderID
	if riderID == "" {
		riderID = "rider_" + uuid.NewString()
	}

	token, _, err := h.auth.GenerateAccessToken(riderID)
	if err != nil {
		response.InternalError(w, r, "failed to issue token")
		return
	}

	response.JSON(w, r, http.StatusOK, tokenResponse{
		RiderID:     riderID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(auth.AccessTokenExpiry.Seconds()),
	})
}
