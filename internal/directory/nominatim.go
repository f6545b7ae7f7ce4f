package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

const (
	nominatimProvider = "nominatim"
	viewboxDegrees    = 0.05
	nominatimLimit    = 5
)

// NominatimConfig configures the OpenStreetMap search client
type NominatimConfig struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	// RateLimit is requests per second; the public instance allows 1
	RateLimit float64
}

// Nominatim searches OpenStreetMap for facilities near an origin
type Nominatim struct {
	url       string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewNominatim creates a live directory
func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.URL == "" {
		cfg.URL = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "EmergencyApp/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	return &Nominatim{
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// Lookup without an origin has nothing to search around
func (n *Nominatim) Lookup(ctx context.Context, t models.FacilityType) []models.Facility {
	logger.WithContext(ctx).Debug("Nominatim lookup skipped without origin", "type", t)
	return []models.Facility{}
}

// LookupNear searches a ±0.05° box around origin
func (n *Nominatim) LookupNear(ctx context.Context, t models.FacilityType, origin models.Coordinate) []models.Facility {
	facilities, err := n.search(ctx, t, origin)
	if err != nil {
		metrics.RecordDirectoryLookup(nominatimProvider, "error")
		logger.WithContext(ctx).Warn("Facility lookup failed",
			"provider", nominatimProvider,
			"type", t,
			"error", err,
		)
		return []models.Facility{}
	}
	metrics.RecordDirectoryLookup(nominatimProvider, "ok")
	return facilities
}

type nominatimPlace struct {
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	ExtraTags   map[string]string `json:"extratags"`
}

func (n *Nominatim) search(ctx context.Context, t models.FacilityType, origin models.Coordinate) ([]models.Facility, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, apperrors.LookupError{Provider: nominatimProvider, Op: "rate limit", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.searchURL(t, origin), nil)
	if err != nil {
		return nil, apperrors.LookupError{Provider: nominatimProvider, Op: "request", Err: err}
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, apperrors.LookupError{Provider: nominatimProvider, Op: "search", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.LookupError{Provider: nominatimProvider, Op: "search", Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)}
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, apperrors.LookupError{Provider: nominatimProvider, Op: "decode", Err: err}
	}

	out := make([]models.Facility, 0, len(places))
	for _, p := range places {
		out = append(out, p.facility(t))
	}
	return out, nil
}

func (n *Nominatim) searchURL(t models.FacilityType, origin models.Coordinate) string {
	lat, lon := origin.Latitude, origin.Longitude
	viewbox := fmt.Sprintf("%.5f,%.5f,%.5f,%.5f",
		lon-viewboxDegrees, lat+viewboxDegrees, lon+viewboxDegrees, lat-viewboxDegrees)

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", fmt.Sprintf("%s near %g,%g", t, lat, lon))
	q.Set("limit", strconv.Itoa(nominatimLimit))
	q.Set("bounded", "1")
	q.Set("viewbox", viewbox)
	q.Set("extratags", "1")
	return n.url + "?" + q.Encode()
}

// facility keeps the first segment of the display name and drops
// coordinates that do not parse
func (p nominatimPlace) facility(t models.FacilityType) models.Facility {
	name := strings.TrimSpace(strings.SplitN(p.DisplayName, ",", 2)[0])
	f := models.Facility{Name: name, Type: t}

	for _, key := range []string{"phone", "contact:phone"} {
		if phone := p.ExtraTags[key]; phone != "" {
			f.Phone = phone
			break
		}
	}

	lat, errLat := strconv.ParseFloat(p.Lat, 64)
	lon, errLon := strconv.ParseFloat(p.Lon, 64)
	if errLat == nil && errLon == nil {
		c := models.Coordinate{Latitude: lat, Longitude: lon}
		if c.Valid() {
			f.Location = &c
		}
	}
	return f
}
