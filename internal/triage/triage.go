// Package triage runs one emergency request through classification,
// guidance, facility ranking, alert composition and optional dispatch.
package triage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajasatyajit/EmergencyTriage/internal/alert"
	"github.com/rajasatyajit/EmergencyTriage/internal/directory"
	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/locate"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
	"github.com/rajasatyajit/EmergencyTriage/internal/notify"
	"github.com/rajasatyajit/EmergencyTriage/internal/ranker"
)

// Classifier assigns a category to free text
type Classifier interface {
	Classify(text string) models.Category
}

// Guidance looks up advice for a category
type Guidance interface {
	For(c models.Category) (models.GuidanceBundle, bool)
}

// Dispatcher fans an alert out to channels
type Dispatcher interface {
	Dispatch(ctx context.Context, payload models.AlertPayload, channels []notify.Channel) map[string]models.NotificationResult
}

// MaxTextLength bounds the free-text description
const MaxTextLength = 2000

// MaxTopK bounds how many ranked facilities a caller may ask for
const MaxTopK = 50

// Request is one triage submission. Latitude and Longitude must be given
// together; when present they take precedence over the location provider.
type Request struct {
	Text      string   `json:"text"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	City      string   `json:"city,omitempty"`
	Notify    bool     `json:"notify,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

// Validate reports every problem with the request
func (r Request) Validate() error {
	errs := &apperrors.MultiError{}

	text := strings.TrimSpace(r.Text)
	switch {
	case text == "":
		errs.Add(apperrors.ValidationError{Field: "text", Message: "must not be empty"})
	case len(r.Text) > MaxTextLength:
		errs.Add(apperrors.ValidationError{Field: "text", Message: "must be at most 2000 bytes"})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs.Add(apperrors.ValidationError{Field: "coordinates", Message: "latitude and longitude must be given together"})
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		errs.Add(apperrors.ValidationError{Field: "latitude", Message: "must be within [-90, 90]"})
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		errs.Add(apperrors.ValidationError{Field: "longitude", Message: "must be within [-180, 180]"})
	}
	if r.TopK < 0 || r.TopK > MaxTopK {
		errs.Add(apperrors.ValidationError{Field: "top_k", Message: "must be between 0 and 50"})
	}

	return errs.ErrOrNil()
}

// Coordinate returns the caller-supplied coordinate, if any
func (r Request) Coordinate() *models.Coordinate {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &models.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// Options wires the service collaborators
type Options struct {
	Classifier Classifier
	Guidance   Guidance
	Directory  directory.Directory
	Locator    locate.Provider
	Dispatcher Dispatcher
	// Channels is called for every dispatch
	Channels func() []notify.Channel
	TopK     int
}

// Service runs triage requests. It holds no per-request state.
type Service struct {
	classifier Classifier
	guidance   Guidance
	directory  directory.Directory
	locator    locate.Provider
	dispatcher Dispatcher
	channels   func() []notify.Channel
	topK       int
}

// New creates a triage service
func New(opts Options) *Service {
	s := &Service{
		classifier: opts.Classifier,
		guidance:   opts.Guidance,
		directory:  opts.Directory,
		locator:    opts.Locator,
		dispatcher: opts.Dispatcher,
		channels:   opts.Channels,
		topK:       opts.TopK,
	}
	if s.locator == nil {
		s.locator = locate.None{}
	}
	if s.channels == nil {
		s.channels = func() []notify.Channel { return nil }
	}
	if s.topK < 1 {
		s.topK = 3
	}
	return s
}

// Triage runs the full cycle. The only error is a validation error; every
// downstream failure degrades the result instead.
func (s *Service) Triage(ctx context.Context, req Request) (models.TriageResult, error) {
	if err := req.Validate(); err != nil {
		return models.TriageResult{}, err
	}

	start := time.Now()
	res := models.TriageResult{
		RequestID:     uuid.NewString(),
		Facilities:    []models.RankedFacility{},
		Notifications: map[string]models.NotificationResult{},
		States:        []models.State{models.StateReceived},
		StartedAt:     start.UTC(),
	}
	if logger.RequestID(ctx) == "" {
		ctx = logger.ContextWithRequestID(ctx, res.RequestID)
	}
	log := logger.WithContext(ctx).With("triage_id", res.RequestID)

	res.Category = s.classifier.Classify(req.Text)
	res.States = append(res.States, models.StateClassified)

	if bundle, ok := s.guidance.For(res.Category); ok {
		res.Guidance = &bundle
		res.States = append(res.States, models.StateGuidanceResolved)
	} else {
		res.States = append(res.States, models.StateGuidanceAbsent)
	}

	res.Location = s.resolveLocation(ctx, req)
	if res.Location != nil {
		res.States = append(res.States, models.StateLocationResolved)
	} else {
		res.States = append(res.States, models.StateLocationUnavailable)
	}

	res.FacilityType = models.FacilityTypeFor(res.Category)
	if res.Location != nil && s.directory != nil {
		topK := s.topK
		if req.TopK > 0 {
			topK = req.TopK
		}
		origin := res.Location.Coordinate
		found := directory.Resolve(ctx, s.directory, res.FacilityType, &origin)
		res.Facilities = ranker.Rank(origin, found, topK)
	}
	if len(res.Facilities) > 0 {
		res.States = append(res.States, models.StateFacilitiesRanked)
	} else {
		res.States = append(res.States, models.StateFacilitiesEmpty)
	}

	var coords *models.Coordinate
	city := ""
	if res.Location != nil {
		c := res.Location.Coordinate
		coords = &c
		city = res.Location.City
	}
	res.Alert = alert.Compose(res.Category, coords, city, req.Text)
	res.States = append(res.States, models.StateAlertComposed)

	if req.Notify {
		res.Notifications = s.Notify(ctx, res.Alert)
		res.States = append(res.States, models.StateDispatched)
	}

	res.Duration = time.Since(start)
	metrics.RecordTriage(res.Duration)
	log.Info("Triage completed",
		"category", res.Category,
		"guidance", res.GuidanceAvailable(),
		"location", res.Location != nil,
		"facilities", len(res.Facilities),
		"notified", len(res.Notifications),
		"duration_ms", res.Duration.Milliseconds(),
	)

	return res, nil
}

// Notify dispatches a composed alert on the configured channels
func (s *Service) Notify(ctx context.Context, payload models.AlertPayload) map[string]models.NotificationResult {
	if s.dispatcher == nil {
		return map[string]models.NotificationResult{}
	}
	return s.dispatcher.Dispatch(ctx, payload, s.channels())
}

// Classify exposes the classifier alone
func (s *Service) Classify(text string) models.Category {
	return s.classifier.Classify(text)
}

// Guidance exposes the guidance registry alone
func (s *Service) Guidance(c models.Category) (models.GuidanceBundle, bool) {
	return s.guidance.For(c)
}

// Facilities ranks facilities of type t around origin
func (s *Service) Facilities(ctx context.Context, t models.FacilityType, origin models.Coordinate, topK int) []models.RankedFacility {
	if topK < 1 {
		topK = s.topK
	}
	if s.directory == nil {
		return []models.RankedFacility{}
	}
	return ranker.Rank(origin, directory.Resolve(ctx, s.directory, t, &origin), topK)
}

func (s *Service) resolveLocation(ctx context.Context, req Request) *models.Location {
	if c := req.Coordinate(); c != nil {
		return &models.Location{Coordinate: *c, City: strings.TrimSpace(req.City)}
	}
	loc, ok := s.locator.Locate(ctx)
	if !ok || loc == nil {
		return nil
	}
	if city := strings.TrimSpace(req.City); city != "" {
		loc.City = city
	}
	return loc
}
