package api

import (
	"strings"

	"shopify-preorder-layer/internal/application"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Handler serves the REST surface of the app
type Handler struct {
	installs  *application.InstallService
	billing   *application.BillingService
	preorders *application.PreOrderService
	waitlist  *application.WaitlistService
	webhooks  *application.WebhookDispatcher
	auth      ports.ShopifyAuth
	metrics   ports.Recorder
	logger    zerolog.Logger
	appURL    string
}

// NewHandler creates a new API handler
func NewHandler(
	installs *application.InstallService,
	billing *application.BillingService,
	preorders *application.PreOrderService,
	waitlist *application.WaitlistService,
	webhooks *application.WebhookDispatcher,
	auth ports.ShopifyAuth,
	metrics ports.Recorder,
	logger zerolog.Logger,
	appURL string,
) *Handler {
	return &Handler{
		installs:  installs,
		billing:   billing,
		preorders: preorders,
		waitlist:  waitlist,
		webhooks:  webhooks,
		auth:      auth,
		metrics:   metrics,
		logger:    logger,
		appURL:    strings.TrimSuffix(appURL, "/"),
	}
}
