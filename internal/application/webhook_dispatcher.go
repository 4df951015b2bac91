package application

import (
	"context"
	"errors"
	"fmt"

	"shopify-barebone-app/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes the webhook topics it claims
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to the registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher with no handlers
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Registration happens at startup only.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Handles reports whether any registered handler claims the topic
func (d *WebhookDispatcher) Handles(topic string) bool {
	for _, h := range d.handlers {
		if h.CanHandle(topic) {
			return true
		}
	}
	return false
}

// Dispatch runs every handler that claims the event topic. Topics nobody
// claims are logged and acknowledged.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	var errs []error
	handled := 0
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled++
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if handled == 0 {
		d.logger.Info().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler registered for webhook topic")
		return nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to handle %s webhook: %w", event.Topic, errors.Join(errs...))
	}
	return nil
}
