package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

const oauthStateTTL = 10 * time.Minute

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`)

// InstallService handles the OAuth install of the app and the shops it produces
type InstallService struct {
	shops      ports.ShopRepository
	states     ports.OAuthStateStore
	auth       ports.ShopifyAuth
	encryption ports.EncryptionService
	logger     zerolog.Logger
	appURL     string
	scopes     []string
	now        func() time.Time
}

// NewInstallService creates a new install service
func NewInstallService(
	shops ports.ShopRepository,
	states ports.OAuthStateStore,
	auth ports.ShopifyAuth,
	encryption ports.EncryptionService,
	logger zerolog.Logger,
	appURL string,
	scopes []string,
) *InstallService {
	return &InstallService{
		shops:      shops,
		states:     states,
		auth:       auth,
		encryption: encryption,
		logger:     logger,
		appURL:     strings.TrimSuffix(appURL, "/"),
		scopes:     scopes,
		now:        time.Now,
	}
}

// ValidShopDomain reports whether s looks like a *.myshopify.com domain
func ValidShopDomain(s string) bool {
	return shopDomainPattern.MatchString(s)
}

// BeginInstall stores a fresh OAuth state and returns the Shopify consent URL
func (s *InstallService) BeginInstall(ctx context.Context, shop string, returnURL string) (string, error) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	if !ValidShopDomain(shop) {
		return "", domain.NewValidationError("shop", "shop must be a valid myshopify.com domain")
	}

	state, err := randomHex(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	if err := s.states.Put(ctx, &domain.OAuthState{
		Shop:      shop,
		State:     state,
		ReturnURL: returnURL,
		ExpiresAt: s.now().Add(oauthStateTTL),
	}); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	authURL, err := s.auth.GenerateAuthURL(shop, s.scopes, s.appURL+"/auth/callback", state)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to generate auth URL")
		return "", fmt.Errorf("failed to generate auth URL: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("OAuth install started")
	return authURL, nil
}

// InstallResult is what a completed install hands back to the caller
type InstallResult struct {
	Shop           *domain.Shop
	IntegrationKey string
	ReturnURL      string
}

// CompleteInstall verifies the callback, exchanges the code and stores the shop
func (s *InstallService) CompleteInstall(ctx context.Context, callback *url.URL) (*InstallResult, error) {
	if !s.auth.VerifyCallback(callback) {
		return nil, fmt.Errorf("%w: invalid callback signature", domain.ErrUnauthenticated)
	}

	q := callback.Query()
	shopDomain := strings.ToLower(q.Get("shop"))
	code := q.Get("code")
	if shopDomain == "" || code == "" || q.Get("state") == "" {
		return nil, domain.NewValidationError("", "shop, code and state are required")
	}

	state, err := s.states.Take(ctx, q.Get("state"))
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth state: %w", err)
	}
	if state == nil || state.Shop != shopDomain {
		return nil, fmt.Errorf("%w: unknown or expired state", domain.ErrUnauthenticated)
	}

	accessToken, err := s.auth.ExchangeToken(ctx, shopDomain, code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to exchange token")
		return nil, domain.NewExternalError("exchange token", err)
	}

	encryptedToken, err := s.encryption.Encrypt(accessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to encrypt access token")
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	now := s.now().UTC()
	if shop == nil {
		key, err := randomHex(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate integration key: %w", err)
		}
		shop = &domain.Shop{
			Domain:         shopDomain,
			IntegrationKey: key,
			InstalledAt:    now,
		}
	}
	shop.AccessToken = encryptedToken
	shop.Scopes = s.scopes
	shop.UninstalledAt = nil
	shop.UpdatedAt = now

	if err := s.shops.Save(ctx, shop); err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to save shop")
		return nil, fmt.Errorf("failed to save shop: %w", err)
	}

	s.logger.Info().Str("shop", shopDomain).Msg("Shop installed")
	return &InstallResult{Shop: shop, IntegrationKey: shop.IntegrationKey, ReturnURL: state.ReturnURL}, nil
}

// Authenticate resolves an integration key to its installed shop
func (s *InstallService) Authenticate(ctx context.Context, integrationKey string) (*domain.Shop, error) {
	if integrationKey == "" {
		return nil, domain.ErrUnauthenticated
	}
	shop, err := s.shops.GetByIntegrationKey(ctx, integrationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if !shop.Installed() {
		return nil, domain.ErrUnauthenticated
	}
	return shop, nil
}

// AccessToken returns the decrypted Admin API token of an installed shop
func (s *InstallService) AccessToken(ctx context.Context, shopDomain string) (string, error) {
	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return "", fmt.Errorf("failed to get shop: %w", err)
	}
	if !shop.Installed() {
		return "", fmt.Errorf("shop %s has no access token: %w", shopDomain, domain.ErrNotFound)
	}

	token, err := s.encryption.Decrypt(shop.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to decrypt access token")
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// MarkUninstalled drops the access token of a shop. Subscription and
// waitlist data are kept.
func (s *InstallService) MarkUninstalled(ctx context.Context, shopDomain string) error {
	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		s.logger.Debug().Str("shop", shopDomain).Msg("Uninstall for unknown shop")
		return nil
	}

	now := s.now().UTC()
	shop.AccessToken = ""
	shop.UninstalledAt = &now
	shop.UpdatedAt = now
	if err := s.shops.Save(ctx, shop); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	s.logger.Info().Str("shop", shopDomain).Msg("Shop uninstalled, access token cleared")
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
