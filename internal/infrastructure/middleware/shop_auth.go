package middleware

import (
	"context"
	"errors"
	"net/http"

	"shopify-preorder-layer/internal/domain"

	"github.com/rs/zerolog"
)

// IntegrationKeyHeader carries the key issued to a shop at install
const IntegrationKeyHeader = "X-Integration-Key"

// Authenticator resolves an integration key to its shop
type Authenticator interface {
	Authenticate(ctx context.Context, integrationKey string) (*domain.Shop, error)
}

// ShopAuth requires a valid integration key and puts the shop domain in the
// request context. The key may also come as the integration_key query
// parameter for embedded page loads.
func ShopAuth(auth Authenticator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IntegrationKeyHeader)
			if key == "" {
				key = r.URL.Query().Get("integration_key")
			}
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": IntegrationKeyHeader + " header is required"})
				return
			}

			shop, err := auth.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid integration key"})
					return
				}
				logger.Error().Err(err).Msg("Failed to authenticate integration key")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
				return
			}

			logger.Debug().
				Str("shopDomain", shop.Domain).
				Msg("Authenticated using integration key")

			ctx := domain.WithShopDomain(r.Context(), shop.Domain)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
