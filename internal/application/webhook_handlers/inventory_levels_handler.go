package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-preorder-layer/internal/application"
	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

// InventoryLevelsHandler notifies waitlisted customers when a variant is restocked
type InventoryLevelsHandler struct {
	logger   zerolog.Logger
	tokens   application.AccessTokenSource
	catalog  ports.Catalog
	waitlist *application.WaitlistService
}

// NewInventoryLevelsHandler creates a new inventory levels webhook handler
func NewInventoryLevelsHandler(
	logger zerolog.Logger,
	tokens application.AccessTokenSource,
	catalog ports.Catalog,
	waitlist *application.WaitlistService,
) *InventoryLevelsHandler {
	return &InventoryLevelsHandler{
		logger:   logger,
		tokens:   tokens,
		catalog:  catalog,
		waitlist: waitlist,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *InventoryLevelsHandler) CanHandle(topic string) bool {
	return topic == domain.TopicInventoryLevelsUpdate
}

// Handle processes an inventory_levels/update webhook event
func (h *InventoryLevelsHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var update domain.InventoryLevelUpdate
	if err := json.Unmarshal(event.Payload, &update); err != nil {
		return domain.NewValidationError("payload", fmt.Sprintf("invalid inventory level payload: %v", err))
	}

	_, err := h.Restock(ctx, event.Shop, update)
	return err
}

// Restock runs the notification workflow for one inventory change and
// returns how many entries were marked notified
func (h *InventoryLevelsHandler) Restock(ctx context.Context, shopDomain string, update domain.InventoryLevelUpdate) (int, error) {
	if shopDomain == "" || update.InventoryItemID == nil || update.Available == nil {
		return 0, domain.NewValidationError("payload", "shop, inventory_item_id and available are required")
	}

	logger := h.logger.With().
		Str("shop", shopDomain).
		Int64("inventoryItemId", *update.InventoryItemID).
		Int64("available", *update.Available).
		Logger()

	if *update.Available <= 0 {
		logger.Debug().Msg("Inventory not restocked, skipping")
		return 0, nil
	}

	token, err := h.tokens.AccessToken(ctx, shopDomain)
	if err != nil {
		logger.Error().Err(err).Msg("No access token for inventory lookup")
		return 0, domain.NewExternalError("load access token", err)
	}

	ref, err := h.catalog.VariantForInventoryItem(ctx, shopDomain, token, *update.InventoryItemID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve inventory item")
		return 0, domain.NewExternalError("resolve inventory item", err)
	}
	if ref == nil {
		logger.Debug().Msg("Inventory item has no variant, skipping")
		return 0, nil
	}

	count, err := h.waitlist.NotifyVariant(ctx, shopDomain, ref.VariantID, ref.ProductTitle)
	if err != nil {
		return 0, err
	}

	logger.Info().
		Str("variantId", ref.VariantID).
		Int("count", count).
		Msg("Processed restock")
	return count, nil
}
