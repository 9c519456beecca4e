package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/skateroute/skateroute/internal/api/models"
	"github.com/skateroute/skateroute/internal/api/response"
	"github.com/skateroute/skateroute/internal/ride"
	"github.com/skateroute/skateroute/internal/routing"
)

// BreakerStater reports the state of an outbound circuit breaker.
type BreakerStater interface {
	CircuitBreakerState() gobreaker.State
}

// OpsHandlerConfig holds dependencies for the ops handler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	Routing   *routing.Service
	Breaker   BreakerStater
	Manager   *ride.Manager
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	routing   *routing.Service
	breaker   BreakerStater
	manager   *ride.Manager
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		routing:   cfg.Routing,
		breaker:   cfg.Breaker,
		manager:   cfg.Manager,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.breaker != nil && h.breaker.CircuitBreakerState() == gobreaker.StateOpen {
		status = models.HealthStatusDegraded
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())

	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
		Subsystems: []models.SubsystemStatus{
			{Name: "segment-store", Status: models.HealthStatusOK},
		},
	}

	if h.manager != nil {
		status.ActiveRides = h.manager.ActiveCount()
	}

	if h.routing != nil {
		providerStatus := models.ProviderStatus{
			Provider: h.routing.ProviderName(),
			Status:   models.HealthStatusOK,
		}
		if h.breaker != nil {
			state := h.breaker.CircuitBreakerState()
			providerStatus.Breaker = state.String()
			if state == gobreaker.StateOpen {
				providerStatus.Status = models.HealthStatusFail
				status.Status = models.HealthStatusDegraded
			}
		}
		status.Providers = []models.ProviderStatus{providerStatus}
	}

	response.JSON(w, r, http.StatusOK, status)
}
