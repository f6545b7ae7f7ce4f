package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/rajasatyajit/EmergencyTriage/config"
	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// MockChannel records calls and returns a preset error
type MockChannel struct {
	name  string
	err   error
	panic bool
	block chan struct{}
	calls int32
}

func (m *MockChannel) Name() string { return m.name }

func (m *MockChannel) Send(ctx context.Context, payload models.AlertPayload) error {
	atomic.AddInt32(&m.calls, 1)
	if m.panic {
		panic("boom")
	}
	if m.block != nil {
		<-m.block
	}
	return m.err
}

func testPayload() models.AlertPayload {
	return models.AlertPayload{
		Category: models.CategoryFire,
		Subject:  "EMERGENCY ALERT: FIRE",
		Message:  "Type: FIRE\nPlease check on me!",
		MapsLink: "unavailable",
	}
}

func TestDispatch_IndependentFailures(t *testing.T) {
	ok := &MockChannel{name: "webhook"}
	missing := NewEmail(config.EmailConfig{Host: "smtp.example.com", Port: 587})

	d := NewDispatcher(4, time.Second)
	results := d.Dispatch(context.Background(), testPayload(), []Channel{ok, missing})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}
	if !results["webhook"].Success {
		t.Errorf("expected webhook success, got %+v", results["webhook"])
	}
	email := results["email"]
	if email.Success {
		t.Fatalf("expected email failure")
	}
	if !strings.Contains(email.Detail, "missing credentials") {
		t.Errorf("expected missing credentials detail, got %q", email.Detail)
	}
}

func TestDispatch_PanicAndTimeout(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	panicky := &MockChannel{name: "panicky", panic: true}
	hanging := &MockChannel{name: "hanging", block: block}
	failing := &MockChannel{name: "failing", err: errors.New("relay down")}
	fine := &MockChannel{name: "fine"}

	d := NewDispatcher(2, 50*time.Millisecond)
	start := time.Now()
	results := d.Dispatch(context.Background(), testPayload(), []Channel{panicky, hanging, failing, fine})

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("dispatch waited on a hanging channel for %v", elapsed)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %+v", results)
	}
	if r := results["panicky"]; r.Success || !strings.Contains(r.Detail, "panicked") {
		t.Errorf("unexpected panicky result %+v", r)
	}
	if r := results["hanging"]; r.Success || !strings.Contains(r.Detail, "timeout") {
		t.Errorf("unexpected hanging result %+v", r)
	}
	if r := results["failing"]; r.Success || r.Detail != "relay down" {
		t.Errorf("unexpected failing result %+v", r)
	}
	if r := results["fine"]; !r.Success || r.Detail != "" {
		t.Errorf("unexpected fine result %+v", r)
	}
	for _, m := range []*MockChannel{panicky, failing, fine} {
		if atomic.LoadInt32(&m.calls) != 1 {
			t.Errorf("channel %s called %d times, want exactly 1", m.name, m.calls)
		}
	}
}

func TestDispatch_Empty(t *testing.T) {
	results := NewDispatcher(0, 0).Dispatch(context.Background(), testPayload(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil map, got %v", results)
	}
}

func TestDispatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewDispatcher(1, time.Second).Dispatch(ctx, testPayload(), []Channel{&MockChannel{name: "fine"}})
	if r := results["fine"]; r.Success {
		t.Errorf("expected failure on cancelled context, got %+v", r)
	}
}

func TestChannels(t *testing.T) {
	cfg := config.NotifyConfig{
		Channels:   []string{"email", "whatsapp", "webhook", "email", "pager"},
		WebhookURL: "http://example.com/hook",
	}
	chans := Channels(cfg)

	var names []string
	for _, c := range chans {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "email,whatsapp,webhook,pager" {
		t.Fatalf("unexpected channels %v", names)
	}

	err := chans[3].Send(context.Background(), testPayload())
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported channel error, got %v", err)
	}
}

func TestRelay_Send(t *testing.T) {
	var got url.Values
	var user, pass, path, agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		agent = r.UserAgent()
		user, pass, _ = r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		got, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	relay := NewRelay(ChannelWhatsApp, config.RelayConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "whatsapp:+14155238886",
		To:         "whatsapp:+919999999999",
		BaseURL:    srv.URL + "/",
	}, srv.Client())

	if err := relay.Send(context.Background(), testPayload()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Errorf("unexpected path %s", path)
	}
	if user != "AC123" || pass != "secret" {
		t.Errorf("unexpected basic auth %s:%s", user, pass)
	}
	if !strings.HasPrefix(agent, "twilio-go/") {
		t.Errorf("expected the request to come from the Twilio client, got agent %q", agent)
	}
	if got.Get("From") != "whatsapp:+14155238886" || got.Get("To") != "whatsapp:+919999999999" {
		t.Errorf("unexpected form %v", got)
	}
	if got.Get("Body") != testPayload().Message {
		t.Errorf("unexpected body %q", got.Get("Body"))
	}
}

func TestRelay_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":20003,"message":"Authenticate","more_info":"https://www.twilio.com/docs/errors/20003","status":401}`))
	}))
	defer srv.Close()

	cfg := config.RelayConfig{AccountSID: "AC1", AuthToken: "bad", From: "a", To: "b", BaseURL: srv.URL}
	err := NewRelay(ChannelWhatsApp, cfg, nil).Send(context.Background(), testPayload())
	if !apperrors.Is(err, apperrors.ErrDeliveryFailed) || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "20003") {
		t.Errorf("expected delivery failure with status and code, got %v", err)
	}

	bad := cfg
	bad.BaseURL = "://nowhere"
	if err := NewRelay(ChannelWhatsApp, bad, nil).Send(context.Background(), testPayload()); err == nil {
		t.Errorf("expected invalid base URL to fail")
	}

	cfg.AuthToken = ""
	err = NewRelay(ChannelWhatsApp, cfg, nil).Send(context.Background(), testPayload())
	if !apperrors.Is(err, apperrors.ErrMissingCredentials) {
		t.Errorf("expected missing credentials, got %v", err)
	}
}

func TestRelay_BasePathAndContext(t *testing.T) {
	var path atomic.Value
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		if strings.Contains(r.URL.Path, "/slow/") {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()
	defer close(release)

	cfg := config.RelayConfig{AccountSID: "AC9", AuthToken: "t", From: "a", To: "b", BaseURL: srv.URL + "/proxy/"}
	if err := NewRelay(ChannelWhatsApp, cfg, srv.Client()).Send(context.Background(), testPayload()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got, _ := path.Load().(string); got != "/proxy/2010-04-01/Accounts/AC9/Messages.json" {
		t.Errorf("expected base path prefix, got %q", got)
	}

	cfg.BaseURL = srv.URL + "/slow/"
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := NewRelay(ChannelWhatsApp, cfg, srv.Client()).Send(ctx, testPayload())
	if !apperrors.Is(err, apperrors.ErrDeliveryFailed) {
		t.Errorf("expected cancelled send to fail delivery, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("context deadline not honored")
	}
}

func TestWebhook_Send(t *testing.T) {
	var received models.AlertPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL, srv.Client()).Send(context.Background(), testPayload()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if received.Category != models.CategoryFire || received.MapsLink != "unavailable" {
		t.Errorf("unexpected payload %+v", received)
	}

	if err := NewWebhook("", nil).Send(context.Background(), testPayload()); !apperrors.Is(err, apperrors.ErrMissingCredentials) {
		t.Errorf("expected missing URL to be reported, got %v", err)
	}
}

// fakeMailer captures the message instead of dialing SMTP
type fakeMailer struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeMailer) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	f.sent = append(f.sent, messages...)
	return f.err
}

func TestEmail_Send(t *testing.T) {
	fake := &fakeMailer{}
	var usedCfg config.EmailConfig
	e := NewEmail(config.EmailConfig{
		Sender:      "sos@example.com",
		AppPassword: "app-pass",
		Receiver:    "family@example.com",
		Host:        "smtp.example.com",
		Port:        587,
	})
	e.newMailer = func(cfg config.EmailConfig) (mailer, error) {
		usedCfg = cfg
		return fake, nil
	}

	if err := e.Send(context.Background(), testPayload()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.sent))
	}
	if usedCfg.Host != "smtp.example.com" {
		t.Errorf("unexpected smtp host %q", usedCfg.Host)
	}

	var buf bytes.Buffer
	if _, err := fake.sent[0].WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: EMERGENCY ALERT: FIRE", "family@example.com", "sos@example.com", "Please check on me!"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}

	fake.err = errors.New("535 auth failed")
	if err := e.Send(context.Background(), testPayload()); !apperrors.Is(err, apperrors.ErrDeliveryFailed) {
		t.Errorf("expected delivery failure, got %v", err)
	}
}
