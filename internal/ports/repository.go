package ports

import (
	"context"

	"shopify-preorder-layer/internal/domain"
)

// SubscriptionRepository persists one subscription per shop.
// GetByShop returns nil, nil when the shop has none.
type SubscriptionRepository interface {
	GetByShop(ctx context.Context, shopDomain string) (*domain.Subscription, error)
	Upsert(ctx context.Context, sub *domain.Subscription) error
}

// PreOrderRepository persists pre-order settings keyed by
// (shop, product, variant)
type PreOrderRepository interface {
	// ListByShop returns the shop's settings, newest first
	ListByShop(ctx context.Context, shopDomain string) ([]*domain.PreOrderSetting, error)

	// GetByVariant returns the setting of a variant or nil
	GetByVariant(ctx context.Context, shopDomain, variantID string) (*domain.PreOrderSetting, error)

	// CountEnabledExcept counts enabled settings of the shop, ignoring the
	// one identified by productID/variantID
	CountEnabledExcept(ctx context.Context, shopDomain, productID, variantID string) (int64, error)

	// Save updates the row sharing the natural key in place, or inserts one
	Save(ctx context.Context, setting *domain.PreOrderSetting) (*domain.PreOrderSetting, error)

	// Delete removes a setting of the shop; domain.ErrNotFound if absent
	Delete(ctx context.Context, shopDomain, id string) error
}

// WaitlistRepository persists back-in-stock signups
type WaitlistRepository interface {
	// FindUnnotified returns the pending entry for (shop, variant, email) or nil
	FindUnnotified(ctx context.Context, shopDomain, variantID, email string) (*domain.WaitlistEntry, error)

	// Create inserts a new entry. A concurrent duplicate pending entry
	// surfaces as ErrDuplicate.
	Create(ctx context.Context, entry *domain.WaitlistEntry) error

	// ListByShop returns the shop's entries, newest first
	ListByShop(ctx context.Context, shopDomain string) ([]*domain.WaitlistEntry, error)

	// ListUnnotifiedByVariant returns pending entries of one variant
	ListUnnotifiedByVariant(ctx context.Context, shopDomain, variantID string) ([]*domain.WaitlistEntry, error)

	// CountUnnotified counts the shop's pending entries
	CountUnnotified(ctx context.Context, shopDomain string) (int64, error)

	// MarkNotified flags the given entries of the shop and returns how many changed
	MarkNotified(ctx context.Context, shopDomain string, ids []string) (int64, error)

	// Delete removes an entry of the shop; domain.ErrNotFound if absent
	Delete(ctx context.Context, shopDomain, id string) error
}

// ShopRepository persists installed shops
type ShopRepository interface {
	Save(ctx context.Context, shop *domain.Shop) error
	GetByDomain(ctx context.Context, domain string) (*domain.Shop, error)
	GetByIntegrationKey(ctx context.Context, key string) (*domain.Shop, error)
}

// OAuthStateStore keeps pending install states for a short time
type OAuthStateStore interface {
	Put(ctx context.Context, state *domain.OAuthState) error
	// Take returns and removes the state, or nil if unknown or expired
	Take(ctx context.Context, state string) (*domain.OAuthState, error)
}
