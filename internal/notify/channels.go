package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rajasatyajit/EmergencyTriage/config"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Channel names accepted in NOTIFY_CHANNELS
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
	ChannelWebhook  = "webhook"
)

// Channels builds the configured channels. It is called per dispatch so
// credential changes are picked up and a misconfigured channel fails on
// its own Send instead of at start-up. Duplicate names are dropped.
func Channels(cfg config.NotifyConfig) []Channel {
	client := &http.Client{Timeout: sendTimeout(cfg)}

	seen := make(map[string]bool, len(cfg.Channels))
	var out []Channel
	for _, name := range cfg.Channels {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case ChannelEmail:
			out = append(out, NewEmail(cfg.Email))
		case ChannelWhatsApp:
			out = append(out, NewRelay(ChannelWhatsApp, cfg.Relay, client))
		case ChannelWebhook:
			out = append(out, NewWebhook(cfg.WebhookURL, client))
		default:
			out = append(out, unsupported(name))
		}
	}
	return out
}

func sendTimeout(cfg config.NotifyConfig) time.Duration {
	if cfg.SendTimeout > 0 {
		return cfg.SendTimeout
	}
	return 10 * time.Second
}

// unsupported reports an unknown channel name as a per-channel failure
type unsupported string

func (u unsupported) Name() string { return string(u) }

func (u unsupported) Send(context.Context, models.AlertPayload) error {
	return fmt.Errorf("unsupported notification channel %q", string(u))
}
