package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Client adapts go-shopify to the app's Shopify ports
type Client struct {
	apiKey     string
	app        goshopify.App
	apiVersion string
	httpClient *http.Client
	logger     zerolog.Logger
}

var (
	_ ports.ShopifyAuth     = (*Client)(nil)
	_ ports.Catalog         = (*Client)(nil)
	_ ports.BillingProvider = (*Client)(nil)
)

// NewClient creates a Shopify adapter. httpClient may be nil.
func NewClient(apiKey, apiSecret, apiVersion string, httpClient *http.Client, logger zerolog.Logger) *Client {
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
	}
	return &Client{
		apiKey:     apiKey,
		app:        app,
		apiVersion: apiVersion,
		httpClient: httpClient,
		logger:     logger,
	}
}

// createClient is a helper to create a goshopify client
func (c *Client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	opts := []goshopify.Option{goshopify.WithRetry(3)}
	if c.apiVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.apiVersion))
	}
	if c.httpClient != nil {
		opts = append(opts, goshopify.WithHTTPClient(c.httpClient))
	}
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

func (c *Client) GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error) {
	// Shopify expects scopes to be comma-separated (no spaces)
	scopesStr := strings.Join(scopes, ",")

	authURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		c.apiKey,
		url.QueryEscape(scopesStr),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)

	c.logger.Debug().
		Str("shop", shop).
		Strs("scopes", scopes).
		Msg("Generated OAuth authorization URL")

	return authURL, nil
}

func (c *Client) VerifyCallback(u *url.URL) bool {
	ok, err := c.app.VerifyAuthorizationURL(u)
	if err != nil {
		c.logger.Warn().Err(err).Msg("OAuth callback verification failed")
		return false
	}
	return ok
}

func (c *Client) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

func (c *Client) VerifyWebhook(r *http.Request) bool {
	return c.app.VerifyWebhookRequest(r)
}

// Catalog

type productNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type variantNode struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Product productNode `json:"product"`
}

func (v *variantNode) ref() *domain.VariantRef {
	if v == nil || v.ID == "" {
		return nil
	}
	return &domain.VariantRef{
		VariantID:    v.ID,
		VariantTitle: v.Title,
		ProductID:    v.Product.ID,
		ProductTitle: v.Product.Title,
	}
}

func (c *Client) VariantForInventoryItem(ctx context.Context, shop string, accessToken string, inventoryItemID int64) (*domain.VariantRef, error) {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}

	var resp struct {
		InventoryItem *struct {
			ID      string       `json:"id"`
			Variant *variantNode `json:"variant"`
		} `json:"inventoryItem"`
	}
	vars := map[string]interface{}{"id": domain.InventoryItemGID(inventoryItemID)}
	if err := client.GraphQL.Query(ctx, variantForInventoryItemQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to query inventory item: %w", err)
	}
	if resp.InventoryItem == nil {
		return nil, nil
	}
	return resp.InventoryItem.Variant.ref(), nil
}

func (c *Client) DescribeVariant(ctx context.Context, shop string, accessToken string, productID, variantID string) (*domain.VariantRef, error) {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ProductVariant *variantNode `json:"productVariant"`
	}
	vars := map[string]interface{}{"id": domain.VariantGID(variantID)}
	if err := client.GraphQL.Query(ctx, describeVariantQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}
	ref := resp.ProductVariant.ref()
	if ref == nil {
		return nil, fmt.Errorf("variant %s: %w", variantID, domain.ErrNotFound)
	}
	return ref, nil
}

// Billing

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type appSubscriptionNode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// recurringLineItems builds the single 30-day recurring charge for a price
func recurringLineItems(price string) ([]map[string]interface{}, error) {
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid plan price %q: %w", price, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("plan price must be positive, got %s", amount)
	}
	return []map[string]interface{}{{
		"plan": map[string]interface{}{
			"appRecurringPricingDetails": map[string]interface{}{
				"price":    map[string]interface{}{"amount": amount.StringFixed(2), "currencyCode": "USD"},
				"interval": "EVERY_30_DAYS",
			},
		},
	}}, nil
}

func (c *Client) CreateSubscription(ctx context.Context, shop string, accessToken string, offer domain.PlanOffer, returnURL string, test bool) (string, error) {
	lineItems, err := recurringLineItems(offer.Price)
	if err != nil {
		return "", err
	}

	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return "", err
	}

	var resp struct {
		AppSubscriptionCreate struct {
			AppSubscription *appSubscriptionNode `json:"appSubscription"`
			ConfirmationURL string               `json:"confirmationUrl"`
			UserErrors      []userError          `json:"userErrors"`
		} `json:"appSubscriptionCreate"`
	}
	vars := map[string]interface{}{
		"name":      offer.Name,
		"returnUrl": returnURL,
		"test":      test,
		"lineItems": lineItems,
	}
	if err := client.GraphQL.Query(ctx, appSubscriptionCreateMutation, vars, &resp); err != nil {
		return "", fmt.Errorf("failed to create app subscription: %w", err)
	}

	payload := resp.AppSubscriptionCreate
	if len(payload.UserErrors) > 0 {
		msgs := make([]string, 0, len(payload.UserErrors))
		for _, ue := range payload.UserErrors {
			msgs = append(msgs, ue.Message)
		}
		return "", fmt.Errorf("app subscription rejected: %s", strings.Join(msgs, "; "))
	}
	if payload.ConfirmationURL == "" {
		return "", fmt.Errorf("app subscription created without confirmation url")
	}
	return payload.ConfirmationURL, nil
}

func (c *Client) ActiveSubscriptions(ctx context.Context, shop string, accessToken string) ([]ports.AppSubscription, error) {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}

	var resp struct {
		CurrentAppInstallation struct {
			ActiveSubscriptions []appSubscriptionNode `json:"activeSubscriptions"`
		} `json:"currentAppInstallation"`
	}
	if err := client.GraphQL.Query(ctx, activeSubscriptionsQuery, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list app subscriptions: %w", err)
	}

	subs := make([]ports.AppSubscription, 0, len(resp.CurrentAppInstallation.ActiveSubscriptions))
	for _, s := range resp.CurrentAppInstallation.ActiveSubscriptions {
		subs = append(subs, ports.AppSubscription{ID: s.ID, Name: s.Name, Status: s.Status})
	}
	return subs, nil
}
