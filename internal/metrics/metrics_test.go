package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Ensure NoOpMetrics methods do not panic and global functions delegate without error
func TestNoOpMetricsAndDelegates(t *testing.T) {
	m := &NoOpMetrics{}
	m.RecordHTTPRequest("GET", "/x", 200, time.Millisecond)
	m.RecordClassification("fire")
	m.RecordDirectoryLookup("static", "ok")
	m.RecordNotification("email", "failed")
	m.RecordTriage(time.Millisecond)
	m.SetDBConnectionsActive(1)
	m.RecordDBQuery("exec", "ok")

	Set(nil)
	RecordHTTPRequest("GET", "/x", 200, time.Millisecond)
	RecordClassification("fire")
	RecordDirectoryLookup("static", "ok")
	RecordNotification("email", "ok")
	RecordTriage(time.Millisecond)
	SetDBConnectionsActive(2)
	RecordDBQuery("query", "ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected NoOp handler to return 404, got %d", rec.Code)
	}
}

func TestPrometheusExposition(t *testing.T) {
	p := NewPrometheus()
	Set(p)
	t.Cleanup(func() { Set(nil) })

	RecordHTTPRequest("POST", "/v1/triage", 200, 20*time.Millisecond)
	RecordClassification("medical")
	RecordClassification("medical")
	RecordDirectoryLookup("nominatim", "error")
	RecordNotification("whatsapp", "ok")
	RecordTriage(150 * time.Millisecond)
	SetDBConnectionsActive(3)
	RecordDBQuery("list_facilities", "ok")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		`triage_http_requests_total{endpoint="/v1/triage",method="POST",status="200"} 1`,
		`triage_classifications_total{category="medical"} 2`,
		`triage_directory_lookups_total{outcome="error",provider="nominatim"} 1`,
		`triage_notifications_total{channel="whatsapp",outcome="ok"} 1`,
		`triage_duration_seconds_count 1`,
		`triage_db_connections_active 3`,
		`triage_db_queries_total{operation="list_facilities",status="ok"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
