package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ProductHandler handles product-related webhook events
type ProductHandler struct {
	logger zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" ||
		topic == "products/update" ||
		topic == "products/delete"
}

// Handle processes a product webhook event
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if !gjson.ValidBytes(event.Payload) {
		return fmt.Errorf("failed to parse product webhook payload")
	}

	product := gjson.ParseBytes(event.Payload)

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopFromPayload(event)).
		Int64("productId", product.Get("id").Int()).
		Str("title", product.Get("title").String()).
		Str("handle", product.Get("handle").String()).
		Msg("Processing product webhook event")

	return nil
}
