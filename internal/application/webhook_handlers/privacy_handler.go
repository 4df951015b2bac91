package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Mandatory privacy topics
const (
	TopicCustomersDataRequest = "customers/data_request"
	TopicCustomersRedact      = "customers/redact"
	TopicShopRedact           = "shop/redact"
)

// PrivacyHandler acknowledges the mandatory privacy webhooks. The app keeps
// no customer data, so there is nothing to export or erase.
type PrivacyHandler struct {
	logger zerolog.Logger
}

// NewPrivacyHandler creates a new privacy webhook handler
func NewPrivacyHandler(logger zerolog.Logger) *PrivacyHandler {
	return &PrivacyHandler{
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *PrivacyHandler) CanHandle(topic string) bool {
	return topic == TopicCustomersDataRequest ||
		topic == TopicCustomersRedact ||
		topic == TopicShopRedact
}

// Handle processes a privacy webhook event
func (h *PrivacyHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if !gjson.ValidBytes(event.Payload) {
		return fmt.Errorf("failed to parse %s webhook payload", event.Topic)
	}

	body := gjson.ParseBytes(event.Payload)
	logEvent := h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopFromPayload(event)).
		Int64("shopId", body.Get("shop_id").Int())

	switch event.Topic {
	case TopicCustomersDataRequest:
		logEvent.
			Int64("customerId", body.Get("customer.id").Int()).
			Int64("dataRequestId", body.Get("data_request.id").Int()).
			Int("ordersRequested", len(body.Get("orders_requested").Array())).
			Msg("Customer data requested")
	case TopicCustomersRedact:
		logEvent.
			Int64("customerId", body.Get("customer.id").Int()).
			Int("ordersToRedact", len(body.Get("orders_to_redact").Array())).
			Msg("Customer redaction requested")
	default:
		logEvent.Msg("Shop redaction requested")
	}

	return nil
}
