package application

import (
	"context"
	"fmt"

	"shopify-preorder-layer/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes the webhook topics it claims
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to their handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers run in registration order.
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Handles reports whether any registered handler accepts the topic
func (d *WebhookDispatcher) Handles(topic string) bool {
	for _, h := range d.handlers {
		if h.CanHandle(topic) {
			return true
		}
	}
	return false
}

// Dispatch runs every handler that accepts the event's topic and stops at
// the first error. Topics nobody handles are acknowledged and ignored.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	handled := false
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			return fmt.Errorf("webhook %s: %w", event.Topic, err)
		}
	}

	if !handled {
		d.logger.Debug().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("No handler for webhook topic")
	}
	return nil
}
