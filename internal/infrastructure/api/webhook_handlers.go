package api

import (
	"errors"
	"io"
	"net/http"

	"shopify-barebone-app/internal/application"
	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/infrastructure/metrics"
	"shopify-barebone-app/internal/infrastructure/signature"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	hmacHeader   = signature.WebhookHMACHeader
	topicHeader  = "X-Shopify-Topic"
	shopHeader   = "X-Shopify-Shop-Domain"
	webhookIDHdr = "X-Shopify-Webhook-Id"

	// Shopify caps webhook payloads well below this
	maxWebhookBytes = 1 << 20
)

// webhookHandler verifies a webhook delivery and dispatches it by topic
func webhookHandler(verifier *signature.Verifier, dispatcher *application.WebhookDispatcher, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := readWebhookBody(w, r, logger)
		if !ok {
			return
		}

		topic := r.Header.Get(topicHeader)
		if !verifier.VerifyWebhook(payload, r.Header.Get(hmacHeader)) {
			logger.Warn().Str("topic", topic).Msg("Webhook signature verification failed")
			metrics.RecordWebhook(metrics.TopicUnverified, metrics.ResultInvalidSignature)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		// only registered topics become metric labels
		label := metrics.TopicUnhandled
		if dispatcher.Handles(topic) {
			label = topic
		}

		event := &domain.WebhookEvent{
			Topic:     topic,
			Shop:      r.Header.Get(shopHeader),
			WebhookID: r.Header.Get(webhookIDHdr),
			Payload:   payload,
			Verified:  true,
		}

		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			logger.Error().Err(err).Str("topic", topic).Str("shop", event.Shop).Msg("Failed to dispatch webhook event")
			metrics.RecordWebhook(label, metrics.OutcomeError)
			// 500 makes Shopify retry the delivery
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		metrics.RecordWebhook(label, metrics.OutcomeSuccess)
		w.WriteHeader(http.StatusOK)
	}
}

// readWebhookBody reads at most maxWebhookBytes of the request body
func readWebhookBody(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	defer r.Body.Close()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn().Int64("limit", tooLarge.Limit).Msg("Webhook payload too large")
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		logger.Error().Err(err).Msg("Failed to read webhook payload")
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return payload, true
}

// fulfillmentNotificationHandler is the fulfillment service callback Shopify
// calls when fulfillment orders are requested or cancelled.
func fulfillmentNotificationHandler(verifier *signature.Verifier, orders *application.OrderService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := readWebhookBody(w, r, logger)
		if !ok {
			return
		}

		if !verifier.VerifyWebhook(payload, r.Header.Get(hmacHeader)) {
			logger.Warn().Msg("Fulfillment notification signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		shop := r.Header.Get(shopHeader)
		kind := gjson.GetBytes(payload, "kind").String()
		userErrors, err := orders.HandleFulfillmentNotification(r.Context(), shop, kind)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"result": map[string]string{"kind": kind, "user_errors": userErrors},
		})
	}
}

// trackingNumbersHandler answers the fulfillment service tracking callback
func trackingNumbersHandler(verifier *signature.Verifier, orders *application.OrderService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !verifier.VerifyInstall(query) {
			logger.Warn().Msg("Invalid tracking callback signature")
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		names := query["order_names[]"]
		if len(names) == 0 {
			names = query["order_names"]
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"tracking_numbers": orders.TrackingNumbers(names),
			"message":          "Successfully received the tracking numbers",
			"success":          true,
		})
	}
}

// stockHandler answers the fulfillment service inventory callback
func stockHandler(verifier *signature.Verifier, orders *application.OrderService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !verifier.VerifyInstall(query) {
			logger.Warn().Msg("Invalid stock callback signature")
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, orders.Stock(query.Get("sku")))
	}
}
