package domain

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	shopDomainKey contextKey = "shop_domain"
)

// WithShopDomain stores the authenticated shop in the context
func WithShopDomain(ctx context.Context, shopDomain string) context.Context {
	return context.WithValue(ctx, shopDomainKey, shopDomain)
}

// GetShopDomainFromContext returns the authenticated shop, or "" if none
func GetShopDomainFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(shopDomainKey).(string); ok {
		return v
	}
	return ""
}
