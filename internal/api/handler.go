package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
	"github.com/rajasatyajit/EmergencyTriage/internal/triage"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 << 10

// Service is the triage surface the API exposes
type Service interface {
	Triage(ctx context.Context, req triage.Request) (models.TriageResult, error)
	Classify(text string) models.Category
	Guidance(c models.Category) (models.GuidanceBundle, bool)
	Facilities(ctx context.Context, t models.FacilityType, origin models.Coordinate, topK int) []models.RankedFacility
	Notify(ctx context.Context, payload models.AlertPayload) map[string]models.NotificationResult
}

// HealthChecker reports whether a dependency can serve traffic
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler handles HTTP requests for the API
type Handler struct {
	service   Service
	checks    map[string]HealthChecker
	limiter   func(http.Handler) http.Handler
	version   string
	buildTime string
	gitCommit string
	startTime time.Time
}

// NewHandler creates a new API handler
func NewHandler(service Service, version, buildTime, gitCommit string) *Handler {
	return &Handler{
		service:   service,
		checks:    make(map[string]HealthChecker),
		version:   version,
		buildTime: buildTime,
		gitCommit: gitCommit,
		startTime: time.Now(),
	}
}

// WithHealthCheck adds a named dependency to the readiness report
func (h *Handler) WithHealthCheck(name string, c HealthChecker) *Handler {
	if c != nil {
		h.checks[name] = c
	}
	return h
}

// WithRateLimit guards the triage and notify endpoints with mw
func (h *Handler) WithRateLimit(mw func(http.Handler) http.Handler) *Handler {
	h.limiter = mw
	return h
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		// Health check endpoints
		r.Get("/health", h.healthHandler)
		r.Get("/health/ready", h.readinessHandler)
		r.Get("/health/live", h.livenessHandler)

		// Rate limited: these may send notifications
		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(h.limiter)
			}
			r.Post("/triage", h.triageHandler)
			r.Post("/notify", h.notifyHandler)
		})

		r.Post("/classify", h.classifyHandler)
		r.Get("/guidance/{category}", h.guidanceHandler)
		r.Get("/facilities", h.facilitiesHandler)
		r.Post("/alerts/compose", h.composeHandler)

		// System info
		r.Get("/version", h.versionHandler)
	})

	// Root health check
	r.Get("/health", h.healthHandler)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// readinessHandler checks if the application is ready to serve traffic
func (h *Handler) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]string, len(h.checks))
	statusCode := http.StatusOK
	status := "ready"

	for name, c := range h.checks {
		checks[name] = "ok"
		if err := c.Health(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			statusCode = http.StatusServiceUnavailable
			status = "not_ready"
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	}

	h.writeJSONResponse(w, statusCode, response)
}

// livenessHandler checks if the application is alive
func (h *Handler) livenessHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// decodeJSON reads a bounded JSON body into v
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	h.writeJSONResponse(w, statusCode, h.errorResponse(r, statusCode, message))
}

// writeValidationError lists every field problem carried by err
func (h *Handler) writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	response := h.errorResponse(r, http.StatusBadRequest, err.Error())

	var multi apperrors.MultiError
	if apperrors.As(err, &multi) {
		for _, e := range multi.Errors {
			var ve apperrors.ValidationError
			if apperrors.As(e, &ve) {
				response.Details = append(response.Details, ve)
			}
		}
	} else {
		var ve apperrors.ValidationError
		if apperrors.As(err, &ve) {
			response.Details = append(response.Details, ve)
		}
	}

	h.writeJSONResponse(w, http.StatusBadRequest, response)
}

func (h *Handler) errorResponse(r *http.Request, statusCode int, message string) ErrorResponse {
	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = r.Header.Get(middleware.RequestIDHeader)
	}
	return ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string                      `json:"error"`
	Message   string                      `json:"message,omitempty"`
	Details   []apperrors.ValidationError `json:"details,omitempty"`
	Timestamp time.Time                   `json:"timestamp"`
	RequestID string                      `json:"request_id,omitempty"`
}
