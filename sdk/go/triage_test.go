package sdk

import (
	"context"
	"net/http/httptest"
	"testing"

	chi "github.com/go-chi/chi/v5"

	"github.com/rajasatyajit/EmergencyTriage/internal/api"
	"github.com/rajasatyajit/EmergencyTriage/internal/classifier"
	"github.com/rajasatyajit/EmergencyTriage/internal/directory"
	"github.com/rajasatyajit/EmergencyTriage/internal/guidance"
	"github.com/rajasatyajit/EmergencyTriage/internal/notify"
	"github.com/rajasatyajit/EmergencyTriage/internal/store"
	"github.com/rajasatyajit/EmergencyTriage/internal/triage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	model, err := classifier.Train(classifier.SampleCorpus())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	svc := triage.New(triage.Options{
		Classifier: model,
		Guidance:   guidance.Default(),
		Directory:  directory.FromStore(store.NewSeededStore(), "static"),
		Dispatcher: notify.NewDispatcher(1, 0),
	})
	r := chi.NewRouter()
	api.NewHandler(svc, "test", "now", "abc").RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", "sdk-test")
	ctx := context.Background()

	lat, lon := 31.6203, 74.8765
	res, err := c.Triage(ctx, TriageRequest{Text: "There is a medical emergency", Latitude: &lat, Longitude: &lon})
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if res.Category != "medical" || res.FacilityType != "hospital" || len(res.Facilities) != 3 {
		t.Errorf("unexpected triage result: %+v", res)
	}
	if res.Alert.MapsLink == "" || res.Guidance == nil {
		t.Errorf("expected alert and guidance: %+v", res)
	}

	category, err := c.Classify(ctx, "robbery at the store")
	if err != nil || category != "police" {
		t.Errorf("Classify = %q, %v", category, err)
	}

	g, err := c.Guidance(ctx, "fire")
	if err != nil || g == nil || len(g.Precautions) == 0 {
		t.Errorf("Guidance(fire) = %+v, %v", g, err)
	}
	g, err = c.Guidance(ctx, "police")
	if err != nil || g != nil {
		t.Errorf("Guidance(police) should be absent, got %+v, %v", g, err)
	}

	facilities, err := c.Facilities(ctx, "police", lat, lon, 1)
	if err != nil || len(facilities) != 1 {
		t.Errorf("Facilities = %+v, %v", facilities, err)
	}

	results, err := c.Notify(ctx, res.Alert)
	if err != nil || len(results) != 0 {
		t.Errorf("Notify without channels = %+v, %v", results, err)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "")

	_, err := c.Triage(context.Background(), TriageRequest{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Message == "" {
		t.Errorf("unexpected error: %+v", apiErr)
	}

	if _, err := c.Facilities(context.Background(), "fire-station", 0, 0, 0); err == nil {
		t.Errorf("expected validation error for unknown facility type")
	}
}
