package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"shopify-preorder-layer/internal/domain"
)

// Webhook statuses, also used as metric labels
const (
	webhookOK       = "ok"
	webhookIgnored  = "ignored"
	webhookInvalid  = "invalid"
	webhookRejected = "rejected"
	webhookFailed   = "error"
)

// ReceiveWebhook verifies and dispatches a Shopify webhook delivery
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	topic := r.Header.Get("X-Shopify-Topic")

	if !h.auth.VerifyWebhook(r) {
		h.logger.Warn().Str("topic", topic).Msg("Webhook signature verification failed")
		h.metrics.WebhookProcessed(topic, webhookRejected)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	if topic == "" {
		h.logger.Warn().Msg("Missing X-Shopify-Topic header")
		h.metrics.WebhookProcessed(topic, webhookInvalid)
		http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook payload")
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	event := &domain.WebhookEvent{
		Topic:      topic,
		Shop:       r.Header.Get("X-Shopify-Shop-Domain"),
		WebhookID:  r.Header.Get("X-Shopify-Webhook-Id"),
		Payload:    payload,
		Verified:   true,
		ReceivedAt: time.Now().UTC(),
	}

	if !h.webhooks.Handles(topic) {
		h.metrics.WebhookProcessed(topic, webhookIgnored)
		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
		return
	}

	if err := h.webhooks.Dispatch(r.Context(), event); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.logger.Warn().Err(err).Str("topic", topic).Str("shop", event.Shop).Msg("Rejected webhook payload")
			h.metrics.WebhookProcessed(topic, webhookInvalid)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		h.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("shop", event.Shop).
			Msg("Failed to dispatch webhook event")
		h.metrics.WebhookProcessed(topic, webhookFailed)

		// 500 makes Shopify retry the delivery
		http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
		return
	}

	h.metrics.WebhookProcessed(topic, webhookOK)
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
