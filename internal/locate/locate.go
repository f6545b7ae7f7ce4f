// Package locate resolves the requester's approximate position.
package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rajasatyajit/EmergencyTriage/config"
	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Provider returns the current location, or false when it cannot be determined
type Provider interface {
	Locate(ctx context.Context) (*models.Location, bool)
}

// New selects a provider for the configured mode
func New(cfg config.LocationConfig) Provider {
	switch cfg.Mode {
	case config.LocationStatic:
		return NewStatic(models.Location{
			Coordinate: models.Coordinate{Latitude: cfg.Latitude, Longitude: cfg.Longitude},
			City:       cfg.City,
		})
	case config.LocationIPAPI:
		return NewIPAPI(cfg.URL, cfg.Timeout)
	default:
		return None{}
	}
}

// None never resolves a location
type None struct{}

func (None) Locate(context.Context) (*models.Location, bool) { return nil, false }

// Static always returns a fixed location
type Static struct {
	loc models.Location
}

func NewStatic(loc models.Location) *Static {
	return &Static{loc: loc}
}

func (s *Static) Locate(context.Context) (*models.Location, bool) {
	loc := s.loc
	return &loc, true
}

// IPAPI looks the caller up by public IP using the ip-api.com JSON endpoint
type IPAPI struct {
	url    string
	client *http.Client
}

// NewIPAPI creates an ip-api provider with a bounded timeout
func NewIPAPI(url string, timeout time.Duration) *IPAPI {
	if url == "" {
		url = "http://ip-api.com/json/"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IPAPI{url: url, client: &http.Client{Timeout: timeout}}
}

type ipapiResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

// Locate resolves the client IP carried by ctx. Callers without a public
// address get no location. Any error is logged and reported as no location.
func (p *IPAPI) Locate(ctx context.Context) (*models.Location, bool) {
	ip, ok := publicIP(logger.ClientIP(ctx))
	if !ok {
		logger.WithContext(ctx).Debug("No public client address to locate", "provider", "ipapi")
		return nil, false
	}
	loc, err := p.lookup(ctx, ip)
	if err != nil {
		logger.WithContext(ctx).Warn("Location lookup failed", "provider", "ipapi", "error", err)
		return nil, false
	}
	return loc, true
}

// publicIP reports whether addr is a routable address ip-api can locate
func publicIP(addr string) (string, bool) {
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsMulticast() {
		return "", false
	}
	return ip.String(), true
}

func (p *IPAPI) lookup(ctx context.Context, ip string) (*models.Location, error) {
	endpoint := strings.TrimSuffix(p.url, "/") + "/" + ip
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.LookupError{Provider: "ipapi", Op: "request", Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.LookupError{Provider: "ipapi", Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.LookupError{Provider: "ipapi", Op: "fetch", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.LookupError{Provider: "ipapi", Op: "decode", Err: err}
	}
	if body.Status != "success" {
		return nil, apperrors.LookupError{
			Provider: "ipapi",
			Op:       "fetch",
			Err:      fmt.Errorf("%w: status %q %s", apperrors.ErrUnavailable, body.Status, body.Message),
		}
	}

	loc := &models.Location{
		Coordinate: models.Coordinate{Latitude: body.Lat, Longitude: body.Lon},
		City:       body.City,
	}
	if !loc.Valid() {
		return nil, apperrors.LookupError{Provider: "ipapi", Op: "decode", Err: fmt.Errorf("coordinate out of range: %s", loc.Coordinate)}
	}
	return loc, nil
}
