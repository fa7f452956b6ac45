package domain

import "time"

// Webhook topics handled by the app
const (
	TopicInventoryLevelsUpdate = "inventory_levels/update"
	TopicAppUninstalled        = "app/uninstalled"
)

// WebhookEvent represents a verified Shopify webhook delivery
type WebhookEvent struct {
	Topic      string
	Shop       string
	WebhookID  string
	Payload    []byte
	Verified   bool
	ReceivedAt time.Time
}

// InventoryLevelUpdate is the inventory_levels/update payload. Pointers
// distinguish missing fields from zero values.
type InventoryLevelUpdate struct {
	InventoryItemID *int64 `json:"inventory_item_id"`
	LocationID      *int64 `json:"location_id"`
	Available       *int64 `json:"available"`
	UpdatedAt       string `json:"updated_at"`
}

// VariantRef identifies a product variant resolved from the catalog
type VariantRef struct {
	VariantID    string
	VariantTitle string
	ProductID    string
	ProductTitle string
}
