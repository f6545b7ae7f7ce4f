// Package sdk is a small client for the EmergencyTriage HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type Client struct {
	BaseURL    string
	ClientType string
	HTTP       *http.Client
}

func New(baseURL, clientType string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), ClientType: clientType, HTTP: http.DefaultClient}
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("triage api: %d %s", e.StatusCode, e.Message)
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Facility struct {
	Name       string      `json:"name"`
	Phone      string      `json:"phone,omitempty"`
	Location   *Coordinate `json:"location,omitempty"`
	Type       string      `json:"type"`
	DistanceKm float64     `json:"distance_km"`
}

type Guidance struct {
	Precautions []string `json:"precautions"`
	Dos         []string `json:"dos"`
	Donts       []string `json:"donts"`
}

type Alert struct {
	Category    string      `json:"category"`
	City        string      `json:"city,omitempty"`
	Coordinates *Coordinate `json:"coordinates,omitempty"`
	FreeText    string      `json:"free_text"`
	MapsLink    string      `json:"maps_link"`
	Subject     string      `json:"subject"`
	Message     string      `json:"message"`
}

type Notification struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

type TriageRequest struct {
	Text      string   `json:"text"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	City      string   `json:"city,omitempty"`
	Notify    bool     `json:"notify,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

type TriageResult struct {
	RequestID     string                  `json:"request_id"`
	Category      string                  `json:"category"`
	Guidance      *Guidance               `json:"guidance"`
	FacilityType  string                  `json:"facility_type"`
	Facilities    []Facility              `json:"facilities"`
	Alert         Alert                   `json:"alert"`
	Notifications map[string]Notification `json:"notifications"`
	States        []string                `json:"states"`
}

// Triage runs the full classify, rank, compose and notify cycle
func (c *Client) Triage(ctx context.Context, req TriageRequest) (*TriageResult, error) {
	var out TriageResult
	if err := c.do(ctx, http.MethodPost, "/v1/triage", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	var out struct {
		Category string `json:"category"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/classify", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	return out.Category, nil
}

// Guidance returns nil without error when the category has no guidance
func (c *Client) Guidance(ctx context.Context, category string) (*Guidance, error) {
	var out struct {
		Available bool      `json:"available"`
		Guidance  *Guidance `json:"guidance"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/guidance/"+url.PathEscape(category), nil, &out)
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.Guidance, nil
}

// Facilities ranks facilities of a type around lat,lon; k <= 0 uses the server default
func (c *Client) Facilities(ctx context.Context, facilityType string, lat, lon float64, k int) ([]Facility, error) {
	q := url.Values{}
	q.Set("type", facilityType)
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	if k > 0 {
		q.Set("k", strconv.Itoa(k))
	}
	var out struct {
		Data []Facility `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/facilities?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Notify(ctx context.Context, alert Alert) (map[string]Notification, error) {
	var out struct {
		Notifications map[string]Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notify", map[string]Alert{"payload": alert}, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ClientType != "" {
		req.Header.Set("X-Client-Type", c.ClientType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Message}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
