package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/rajasatyajit/EmergencyTriage/config"
	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

const defaultRelayBase = "https://api.twilio.com"

// Relay sends the alert through the Twilio messages API
type Relay struct {
	name   string
	cfg    config.RelayConfig
	client *http.Client
}

// NewRelay creates a relay channel reported under name
func NewRelay(name string, cfg config.RelayConfig, client *http.Client) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	return &Relay{name: name, cfg: cfg, client: client}
}

func (r *Relay) Name() string { return r.name }

// Send creates one message resource. The REST client is built per send so
// credentials and ctx are bound to this dispatch only.
func (r *Relay) Send(ctx context.Context, payload models.AlertPayload) error {
	if r.cfg.AccountSID == "" || r.cfg.AuthToken == "" || r.cfg.From == "" || r.cfg.To == "" {
		return apperrors.ChannelError{Channel: r.name, Err: apperrors.ErrMissingCredentials}
	}

	httpClient, err := r.httpClient(ctx)
	if err != nil {
		return apperrors.ChannelError{Channel: r.name, Err: err}
	}
	base := &twclient.Client{
		Credentials: twclient.NewCredentials(r.cfg.AccountSID, r.cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(r.cfg.AccountSID)
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{Client: base})

	params := &openapi.CreateMessageParams{}
	params.SetTo(r.cfg.To)
	params.SetFrom(r.cfg.From)
	params.SetBody(payload.Message)

	if _, err := rest.Api.CreateMessage(params); err != nil {
		return apperrors.ChannelError{Channel: r.name, Err: deliveryError(err)}
	}
	return nil
}

// httpClient binds ctx to every SDK request and points it at the configured base
func (r *Relay) httpClient(ctx context.Context) (*http.Client, error) {
	t := &relayTransport{ctx: ctx, next: r.client.Transport}
	if t.next == nil {
		t.next = http.DefaultTransport
	}
	if b := strings.TrimRight(r.cfg.BaseURL, "/"); b != "" && b != defaultRelayBase {
		u, err := url.Parse(b)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid relay base URL %q", r.cfg.BaseURL)
		}
		t.base = u
	}
	return &http.Client{Transport: t, Timeout: r.client.Timeout}, nil
}

func deliveryError(err error) error {
	var rest *twclient.TwilioRestError
	if errors.As(err, &rest) {
		return fmt.Errorf("%w: HTTP %d: code %d: %s", apperrors.ErrDeliveryFailed, rest.Status, rest.Code, rest.Message)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)
}

type relayTransport struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper
}

func (t *relayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if t.base != nil {
		req.URL.Scheme = t.base.Scheme
		req.URL.Host = t.base.Host
		req.URL.Path = strings.TrimRight(t.base.Path, "/") + req.URL.Path
		req.Host = ""
	}
	return t.next.RoundTrip(req)
}
