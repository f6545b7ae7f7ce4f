package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rajasatyajit/EmergencyTriage/internal/alert"
	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
	"github.com/rajasatyajit/EmergencyTriage/internal/triage"
)

// maxTopK bounds the k query parameter, matching the triage request cap
const maxTopK = triage.MaxTopK

// ClassifyRequest is the body of POST /v1/classify
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ComposeRequest is the body of POST /v1/alerts/compose
type ComposeRequest struct {
	Category  string   `json:"category"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	City      string   `json:"city,omitempty"`
	Text      string   `json:"text"`
}

// NotifyRequest is the body of POST /v1/notify
type NotifyRequest struct {
	Payload models.AlertPayload `json:"payload"`
}

// triageHandler handles POST /v1/triage
func (h *Handler) triageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req triage.Request
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	result, err := h.service.Triage(ctx, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			h.writeValidationError(w, r, err)
			return
		}
		logger.WithContext(ctx).Error("Triage failed", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// classifyHandler handles POST /v1/classify
func (h *Handler) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeValidationError(w, r, apperrors.ValidationError{Field: "text", Message: "must not be empty"})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"category": h.service.Classify(req.Text),
	})
}

// guidanceHandler handles GET /v1/guidance/{category}
func (h *Handler) guidanceHandler(w http.ResponseWriter, r *http.Request) {
	category := models.ParseCategory(chi.URLParam(r, "category"))

	bundle, ok := h.service.Guidance(category)
	if !ok {
		h.writeJSONResponse(w, http.StatusNotFound, map[string]interface{}{
			"category":  category,
			"available": false,
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"category":  category,
		"available": true,
		"guidance":  bundle,
	})
}

// facilitiesHandler handles GET /v1/facilities?type=&lat=&lon=&k=
func (h *Handler) facilitiesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, origin, k, err := h.parseFacilityQuery(r)
	if err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	ranked := h.service.Facilities(ctx, t, origin, k)
	response := map[string]interface{}{
		"data":      ranked,
		"count":     len(ranked),
		"timestamp": time.Now().UTC(),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// parseFacilityQuery parses and validates the facility query parameters
func (h *Handler) parseFacilityQuery(r *http.Request) (models.FacilityType, models.Coordinate, int, error) {
	q := r.URL.Query()
	errs := &apperrors.MultiError{}

	t, ok := models.ParseFacilityType(q.Get("type"))
	if !ok {
		errs.Add(apperrors.ValidationError{Field: "type", Message: fmt.Sprintf("must be %q or %q", models.FacilityHospital, models.FacilityPolice)})
	}

	var origin models.Coordinate
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		errs.Add(apperrors.ValidationError{Field: "lat", Message: "must be a number"})
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		errs.Add(apperrors.ValidationError{Field: "lon", Message: "must be a number"})
	}
	origin = models.Coordinate{Latitude: lat, Longitude: lon}
	if !errs.HasErrors() && !origin.Valid() {
		errs.Add(apperrors.ValidationError{Field: "lat,lon", Message: "out of range"})
	}

	k := 0
	if kStr := q.Get("k"); kStr != "" {
		k, err = strconv.Atoi(kStr)
		if err != nil || k < 1 || k > maxTopK {
			errs.Add(apperrors.ValidationError{Field: "k", Message: fmt.Sprintf("must be between 1 and %d", maxTopK)})
		}
	}

	return t, origin, k, errs.ErrOrNil()
}

// composeHandler handles POST /v1/alerts/compose
func (h *Handler) composeHandler(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	errs := &apperrors.MultiError{}
	if strings.TrimSpace(req.Category) == "" {
		errs.Add(apperrors.ValidationError{Field: "category", Message: "must not be empty"})
	}
	var coords *models.Coordinate
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		coords = &models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if !coords.Valid() {
			errs.Add(apperrors.ValidationError{Field: "coordinates", Message: "out of range"})
		}
	case req.Latitude != nil || req.Longitude != nil:
		errs.Add(apperrors.ValidationError{Field: "coordinates", Message: "latitude and longitude must be given together"})
	}
	if err := errs.ErrOrNil(); err != nil {
		h.writeValidationError(w, r, err)
		return
	}

	payload := alert.Compose(models.ParseCategory(req.Category), coords, req.City, req.Text)
	h.writeJSONResponse(w, http.StatusOK, payload)
}

// notifyHandler handles POST /v1/notify
func (h *Handler) notifyHandler(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Payload.Message) == "" {
		h.writeValidationError(w, r, apperrors.ValidationError{Field: "payload.message", Message: "must not be empty"})
		return
	}
	if req.Payload.Subject == "" {
		req.Payload.Subject = alert.Subject(req.Payload.Category)
	}

	results := h.service.Notify(r.Context(), req.Payload)
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"notifications": results,
	})
}
