package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle logs the uninstall. The shop credential is kept; a reinstall
// replaces its token through the OAuth callback.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if !gjson.ValidBytes(event.Payload) {
		return fmt.Errorf("failed to parse app uninstalled webhook payload")
	}

	shopDomain := shopFromPayload(event)

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Str("shopName", gjson.GetBytes(event.Payload, "name").String()).
		Msg("App uninstalled")

	return nil
}

// shopFromPayload prefers the header shop and falls back to the payload domain fields
func shopFromPayload(event *domain.WebhookEvent) string {
	if event.Shop != "" {
		return event.Shop
	}
	for _, path := range []string{"myshopify_domain", "shop_domain", "domain"} {
		if v := gjson.GetBytes(event.Payload, path).String(); v != "" {
			return v
		}
	}
	return ""
}
