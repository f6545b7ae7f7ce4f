package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	chi "github.com/go-chi/chi/v5"

	"github.com/rajasatyajit/EmergencyTriage/internal/api"
	"github.com/rajasatyajit/EmergencyTriage/internal/classifier"
	"github.com/rajasatyajit/EmergencyTriage/internal/directory"
	"github.com/rajasatyajit/EmergencyTriage/internal/guidance"
	middlewares "github.com/rajasatyajit/EmergencyTriage/internal/middleware"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
	"github.com/rajasatyajit/EmergencyTriage/internal/notify"
	"github.com/rajasatyajit/EmergencyTriage/internal/ratelimit"
	"github.com/rajasatyajit/EmergencyTriage/internal/store"
	"github.com/rajasatyajit/EmergencyTriage/internal/triage"
)

func newRouter(t *testing.T, limiter func(http.Handler) http.Handler) *chi.Mux {
	t.Helper()

	model, err := classifier.Train(classifier.SampleCorpus())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	svc := triage.New(triage.Options{
		Classifier: model,
		Guidance:   guidance.Default(),
		Directory:  directory.FromStore(store.NewSeededStore(), "static"),
		Dispatcher: notify.NewDispatcher(2, 0),
		TopK:       3,
	})

	h := api.NewHandler(svc, "test", "test-time", "test-commit")
	if limiter != nil {
		h.WithRateLimit(limiter)
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postTriage(t *testing.T, r http.Handler, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/v1/triage", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTriageEndToEnd(t *testing.T) {
	r := newRouter(t, nil)

	tests := []struct {
		text         string
		category     models.Category
		facilityType models.FacilityType
		guidance     bool
	}{
		{"FIRE ALARM RINGING", models.CategoryFire, models.FacilityPolice, true},
		{"Someone has fainted, medical emergency!", models.CategoryMedical, models.FacilityHospital, true},
		{"I hear gunshots, police please!", models.CategoryPolice, models.FacilityPolice, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			w := postTriage(t, r, map[string]interface{}{
				"text":      tt.text,
				"latitude":  31.6203,
				"longitude": 74.8765,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}

			var res models.TriageResult
			if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if res.Category != tt.category {
				t.Errorf("category = %s, want %s", res.Category, tt.category)
			}
			if res.FacilityType != tt.facilityType {
				t.Errorf("facility type = %s, want %s", res.FacilityType, tt.facilityType)
			}
			if res.GuidanceAvailable() != tt.guidance {
				t.Errorf("guidance available = %v", res.GuidanceAvailable())
			}
			if len(res.Facilities) == 0 {
				t.Errorf("expected ranked facilities")
			}
		})
	}
}

func TestRedisRateLimit_SharedAcrossReplicas(t *testing.T) {
	s := miniredis.RunT(t)
	mgr, err := ratelimit.NewManager("redis://" + s.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	limiter := middlewares.RedisRateLimit(mgr, 2)
	replicaA := newRouter(t, limiter)
	replicaB := newRouter(t, limiter)

	body := map[string]interface{}{"text": "smoke coming from the kitchen"}
	if w := postTriage(t, replicaA, body); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	if w := postTriage(t, replicaB, body); w.Code != http.StatusOK {
		t.Fatalf("second: %d", w.Code)
	}
	if w := postTriage(t, replicaA, body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request should exhaust the shared budget, got %d", w.Code)
	}
}
