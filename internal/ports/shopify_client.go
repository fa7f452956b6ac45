package ports

import (
	"context"
	"net/http"
	"net/url"

	"shopify-preorder-layer/internal/domain"
)

// ShopifyAuth covers the OAuth and webhook signature parts of the Shopify app
type ShopifyAuth interface {
	GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error)
	VerifyCallback(u *url.URL) bool
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)
	// VerifyWebhook checks X-Shopify-Hmac-Sha256; the request body stays readable
	VerifyWebhook(r *http.Request) bool
}

// Catalog reads product data from the Shopify Admin API
type Catalog interface {
	// VariantForInventoryItem resolves the variant stocked by an inventory
	// item. It returns nil, nil when the item has no variant.
	VariantForInventoryItem(ctx context.Context, shop string, accessToken string, inventoryItemID int64) (*domain.VariantRef, error)

	// DescribeVariant returns product and variant titles
	DescribeVariant(ctx context.Context, shop string, accessToken string, productID, variantID string) (*domain.VariantRef, error)
}

// AppSubscription is a recurring app charge as reported by Shopify
type AppSubscription struct {
	ID     string
	Name   string
	Status string
}

// BillingProvider creates and inspects Shopify app subscriptions
type BillingProvider interface {
	// CreateSubscription starts a recurring charge and returns the URL the
	// merchant must visit to approve it
	CreateSubscription(ctx context.Context, shop string, accessToken string, offer domain.PlanOffer, returnURL string, test bool) (string, error)

	// ActiveSubscriptions lists the app subscriptions of the installation
	ActiveSubscriptions(ctx context.Context, shop string, accessToken string) ([]AppSubscription, error)
}
