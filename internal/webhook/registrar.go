package webhook

import (
	"context"
	"strings"

	"outreach_backend/internal/provider"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Registrar ensures our callback URLs are registered with the provider.
// Run at startup; safe to run repeatedly.
type Registrar struct {
	client  *provider.Client
	baseURL string
	log     *logger.Logger
}

func NewRegistrar(client *provider.Client, cfg config.ProviderConfig, log *logger.Logger) *Registrar {
	return &Registrar{
		client:  client,
		baseURL: strings.TrimRight(cfg.GetPublicBaseURL(), "/"),
		log:     log,
	}
}

// EnsureRegistered registers the messaging and account status callbacks
// unless the provider already has them. A missing public base URL disables
// registration (local development relies on the polling fallbacks).
func (r *Registrar) EnsureRegistered(ctx context.Context) error {
	if r.baseURL == "" {
		r.log.Info("no public base url, skipping webhook registration")
		return nil
	}

	existing, err := r.client.ListWebhooks(ctx)
	if err != nil {
		return err
	}
	registered := make(map[string]bool, len(existing))
	for _, hook := range existing {
		registered[hook.RequestURL] = true
	}

	targets := map[string]string{
		"messaging":      r.baseURL + "/api/v1/webhooks/messaging",
		"account_status": r.baseURL + "/api/v1/webhooks/account-status",
	}
	for source, url := range targets {
		if registered[url] {
			continue
		}
		id, err := r.client.CreateWebhook(ctx, source, url)
		if err != nil {
			return err
		}
		r.log.Info("webhook registered", "source", source, "url", url, "webhook_id", id)
	}
	return nil
}
