package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Webhook posts the payload as JSON to a URL
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook channel
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: url, client: client}
}

func (w *Webhook) Name() string { return ChannelWebhook }

func (w *Webhook) Send(ctx context.Context, payload models.AlertPayload) error {
	if w.url == "" {
		return apperrors.ChannelError{Channel: ChannelWebhook, Err: apperrors.ErrMissingCredentials}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "EmergencyTriage/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return apperrors.ChannelError{Channel: ChannelWebhook, Err: fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.ChannelError{
			Channel: ChannelWebhook,
			Err:     fmt.Errorf("%w: HTTP %d", apperrors.ErrDeliveryFailed, resp.StatusCode),
		}
	}
	return nil
}
