package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/statusrelay/statusrelay/internal/api/models"
	"github.com/statusrelay/statusrelay/internal/api/response"
	"github.com/statusrelay/statusrelay/internal/provider/resilience"
	"github.com/statusrelay/statusrelay/internal/service"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *service.Registry
	health    *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. health may be nil.
func NewOpsHandler(version, buildTime string, registry *service.Registry, health *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		health:    health,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /ops/ready - ready once the catalogue is loaded.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil || h.registry.Len() == 0 {
		response.ServiceUnavailable(w, r, "service catalogue not loaded")
		return
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"services": h.registry.Len(),
		},
	})
}

// SystemStatus handles GET /ops/status - last known state of every provider.
// The relay is DEGRADED while any provider circuit is not closed.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
	}

	if h.health != nil {
		for _, ph := range h.health.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider:      ph.Name,
				Status:        providerStatus(ph),
				CircuitState:  ph.CircuitState.String(),
				LastSuccessAt: models.TimestampPtr(ph.LastSuccessAt),
				LastFailureAt: models.TimestampPtr(ph.LastFailureAt),
			}
			if ph.LastError != "" {
				msg := ph.LastError
				ps.Message = &msg
			}
			if ps.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(ph *resilience.ProviderHealth) models.HealthStatus {
	switch ph.CircuitState {
	case gobreaker.StateOpen:
		return models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
