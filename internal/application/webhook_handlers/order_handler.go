package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// OrderHandler handles order-related webhook events
type OrderHandler struct {
	logger zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == "orders/create" ||
		topic == "orders/updated" ||
		topic == "orders/cancelled" ||
		topic == "orders/paid" ||
		topic == "orders/fulfilled" ||
		topic == "orders/partially_fulfilled"
}

// Handle processes an order webhook event
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if !gjson.ValidBytes(event.Payload) {
		return fmt.Errorf("failed to parse order webhook payload")
	}

	order := gjson.ParseBytes(event.Payload)

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopFromPayload(event)).
		Int64("orderId", order.Get("id").Int()).
		Str("name", order.Get("name").String()).
		Str("totalPrice", order.Get("total_price").String()).
		Str("financialStatus", order.Get("financial_status").String()).
		Str("fulfillmentStatus", order.Get("fulfillment_status").String()).
		Msg("Processing order webhook event")

	return nil
}
