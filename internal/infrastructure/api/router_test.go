package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"shopify-preorder-layer/internal/application"
	"shopify-preorder-layer/internal/application/webhook_handlers"
	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/database"
	"shopify-preorder-layer/internal/infrastructure/encryption"
	"shopify-preorder-layer/internal/infrastructure/lock"
	"shopify-preorder-layer/internal/infrastructure/metrics"
	"shopify-preorder-layer/internal/infrastructure/repository"
	"shopify-preorder-layer/internal/infrastructure/state"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shop     = "demo.myshopify.com"
	shopKey  = "key-1"
	validSig = "valid"
)

type fakeShopify struct {
	active []ports.AppSubscription
	items  map[int64]*domain.VariantRef
}

func (f *fakeShopify) GenerateAuthURL(shop string, _ []string, redirectURI string, state string) (string, error) {
	return "https://" + shop + "/admin/oauth/authorize?" + url.Values{
		"redirect_uri": {redirectURI},
		"state":        {state},
	}.Encode(), nil
}

func (f *fakeShopify) VerifyCallback(u *url.URL) bool {
	return u.Query().Get("hmac") == validSig
}

func (f *fakeShopify) ExchangeToken(context.Context, string, string) (string, error) {
	return "shpat_new", nil
}

func (f *fakeShopify) VerifyWebhook(r *http.Request) bool {
	return r.Header.Get("X-Shopify-Hmac-Sha256") == validSig
}

func (f *fakeShopify) VariantForInventoryItem(_ context.Context, _ string, _ string, id int64) (*domain.VariantRef, error) {
	return f.items[id], nil
}

func (f *fakeShopify) DescribeVariant(context.Context, string, string, string, string) (*domain.VariantRef, error) {
	return &domain.VariantRef{ProductTitle: "Tee", VariantTitle: "Large"}, nil
}

func (f *fakeShopify) CreateSubscription(_ context.Context, shop string, _ string, offer domain.PlanOffer, returnURL string, _ bool) (string, error) {
	return "https://" + shop + "/admin/charges/confirm?name=" + url.QueryEscape(offer.Name), nil
}

func (f *fakeShopify) ActiveSubscriptions(context.Context, string, string) ([]ports.AppSubscription, error) {
	return f.active, nil
}

type countingNotifier struct{ sent int }

func (n *countingNotifier) NotifyRestock(_ context.Context, notice ports.RestockNotice) error {
	n.sent += len(notice.Entries)
	return nil
}

type testServer struct {
	router   http.Handler
	shopify  *fakeShopify
	notifier *countingNotifier
	billing  *application.BillingService
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	enc, err := encryption.NewService("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	shops := repository.NewGormShopRepository(db)
	token, err := enc.Encrypt("shpat_test")
	require.NoError(t, err)
	require.NoError(t, shops.Save(ctx, &domain.Shop{Domain: shop, AccessToken: token, IntegrationKey: shopKey, InstalledAt: time.Now()}))

	ts := &testServer{
		shopify:  &fakeShopify{items: map[int64]*domain.VariantRef{555: {VariantID: "gid://shopify/ProductVariant/11", ProductTitle: "Tee"}}},
		notifier: &countingNotifier{},
		metrics:  metrics.New(false),
	}
	locker := lock.NewLocalLocker(time.Second)

	installs := application.NewInstallService(shops, state.NewMemoryStore(), ts.shopify, enc, logger, "https://app.example.com", []string{"read_products"})
	ts.billing = application.NewBillingService(repository.NewGormSubscriptionRepository(db), ts.shopify, installs, logger, "https://app.example.com", true)
	preorders := application.NewPreOrderService(repository.NewGormPreOrderRepository(db), ts.billing, locker, ts.metrics, logger)
	waitlist := application.NewWaitlistService(repository.NewGormWaitlistRepository(db), ts.billing, ts.shopify, installs, ts.notifier, locker, ts.metrics, logger)

	dispatcher := application.NewWebhookDispatcher(logger)
	dispatcher.RegisterHandler(webhook_handlers.NewInventoryLevelsHandler(logger, installs, ts.shopify, waitlist))
	dispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, installs))

	h := NewHandler(installs, ts.billing, preorders, waitlist, dispatcher, ts.shopify, ts.metrics, logger, "https://app.example.com")
	ts.router = NewRouter(h, RouterOptions{AllowedOrigins: []string{"*"}, SwaggerFile: "../../../docs/swagger.json", Metrics: ts.metrics})
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, r)
	return w
}

var authed = map[string]string{"X-Integration-Key": shopKey}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestRouter_PreOrderLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/preorder/"+shop, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["preOrders"])

	w = ts.do(t, http.MethodPost, "/api/preorder/save", map[string]interface{}{"productId": "1", "variantId": "11", "enabled": true}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/preorder/save", map[string]interface{}{"productId": "1", "variantId": "11", "enabled": true, "expectedDate": "2026-12-01"}, authed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode(t, w)["preOrder"].(map[string]interface{})
	id := saved["id"].(string)
	assert.Equal(t, "gid://shopify/ProductVariant/11", saved["variantId"])

	w = ts.do(t, http.MethodPost, "/api/preorder/save", map[string]interface{}{"productId": "2", "variantId": "22", "enabled": true}, authed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "limit_exceeded", body["code"])
	assert.Equal(t, "Plan limit reached. Maximum 1 pre-order product(s) allowed.", body["error"])

	w = ts.do(t, http.MethodPost, "/api/preorder/save", map[string]interface{}{"productId": "1"}, authed)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product ID and Variant ID are required", decode(t, w)["error"])

	w = ts.do(t, http.MethodPost, "/api/preorder/save", "{not json", authed)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/preorder/"+shop+"/variants/11", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/preorder/"+shop+"/variants/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/preorder/not-a-shop", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/preorder/"+id, nil, authed)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	w = ts.do(t, http.MethodDelete, "/api/preorder/"+id, nil, authed)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SaveRequiresActivePlan(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.billing.SetSubscription(context.Background(), shop, domain.PlanBasic, domain.StatusCancelled)
	require.NoError(t, err)

	w := ts.do(t, http.MethodPost, "/api/preorder/save", map[string]interface{}{"productId": "1", "variantId": "11"}, authed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "upgrade_required", decode(t, w)["code"])

	w = ts.do(t, http.MethodGet, "/app/products", nil, authed)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/app/billing?upgrade_required=true", w.Header().Get("Location"))
}

func TestRouter_WaitlistFlow(t *testing.T) {
	ts := newTestServer(t)
	signup := map[string]string{"shopDomain": shop, "productId": "1", "variantId": "11", "email": "ann@example.com"}

	w := ts.do(t, http.MethodPost, "/api/waitlist/add", signup, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/waitlist/add", signup, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = ts.do(t, http.MethodPost, "/api/waitlist/add", map[string]string{"shopDomain": shop, "productId": "1", "variantId": "11", "email": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email address", decode(t, w)["error"])

	w = ts.do(t, http.MethodGet, "/api/waitlist", nil, authed)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["entries"].([]interface{})
	require.Len(t, entries, 1)

	w = ts.do(t, http.MethodGet, "/app/backinstock", nil, authed)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	first := page["entries"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Tee", first["productTitle"])

	// FREE shops cannot trigger notifications manually
	w = ts.do(t, http.MethodPost, "/api/waitlist/notify", map[string]string{"variantId": "11"}, authed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "upgrade_required", decode(t, w)["code"])

	_, err := ts.billing.SetSubscription(context.Background(), shop, domain.PlanBasic, domain.StatusActive)
	require.NoError(t, err)

	w = ts.do(t, http.MethodPost, "/api/waitlist/notify", map[string]string{"variantId": "11", "productTitle": "Tee"}, authed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["notified"])
	assert.Equal(t, 1, ts.notifier.sent)

	w = ts.do(t, http.MethodPost, "/api/waitlist/notify", map[string]string{"variantId": "11"}, authed)
	assert.Equal(t, float64(0), decode(t, w)["notified"])

	id := entries[0].(map[string]interface{})["id"].(string)
	w = ts.do(t, http.MethodDelete, "/api/waitlist/"+id, nil, authed)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/waitlist/"+id, nil, authed)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Billing(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/app/billing", nil, authed)
	require.Equal(t, http.StatusOK, w.Code)
	sub := decode(t, w)["subscription"].(map[string]interface{})
	assert.Equal(t, "FREE", sub["plan"])

	w = ts.do(t, http.MethodPost, "/app/billing", map[string]string{"plan": "GOLD"}, authed)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/app/billing", map[string]string{"plan": "pro"}, authed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["confirmationUrl"], "Pro+Plan")

	w = ts.do(t, http.MethodGet, "/app/billing/callback?shop="+shop+"&plan=PRO&charge_id=9", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/app/billing?error=activation_failed", w.Header().Get("Location"))

	ts.shopify.active = []ports.AppSubscription{{ID: "gid://shopify/AppSubscription/9", Name: "Pro Plan", Status: "ACTIVE"}}
	w = ts.do(t, http.MethodGet, "/app/billing/callback?shop="+shop+"&plan=PRO&charge_id=9", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/app/billing?success=true", w.Header().Get("Location"))

	// the public callback cannot downgrade a shop
	w = ts.do(t, http.MethodGet, "/app/billing/callback?shop="+shop+"&plan=FREE", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/app/billing", nil, authed)
	body := decode(t, w)
	assert.Equal(t, "PRO", body["subscription"].(map[string]interface{})["plan"])
	limits := body["limits"].(map[string]interface{})
	assert.Nil(t, limits["maxPreOrders"])

	w = ts.do(t, http.MethodPost, "/app/billing", map[string]string{"plan": "FREE"}, authed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestRouter_Webhooks(t *testing.T) {
	ts := newTestServer(t)
	signed := func(topic string) map[string]string {
		return map[string]string{
			"X-Shopify-Hmac-Sha256": validSig,
			"X-Shopify-Topic":       topic,
			"X-Shopify-Shop-Domain": shop,
		}
	}

	w := ts.do(t, http.MethodPost, "/api/waitlist/add", map[string]string{"shopDomain": shop, "productId": "1", "variantId": "11", "email": "ann@example.com"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/webhooks/shopify", `{"inventory_item_id":555,"available":3}`, map[string]string{"X-Shopify-Topic": domain.TopicInventoryLevelsUpdate})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, ts.notifier.sent)

	w = ts.do(t, http.MethodPost, "/webhooks/shopify", `{"inventory_item_id":555,"available":3}`, signed(domain.TopicInventoryLevelsUpdate))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, ts.notifier.sent)

	w = ts.do(t, http.MethodPost, "/webhooks/shopify", `{"inventory_item_id":777,"available":3}`, signed(domain.TopicInventoryLevelsUpdate))
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/webhooks/shopify", `{"location_id":1}`, signed(domain.TopicInventoryLevelsUpdate))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/webhooks/shopify", `{}`, signed("orders/create"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/webhooks/shopify", `{}`, signed(domain.TopicAppUninstalled))
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/waitlist", nil, authed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `webhook_events_total{status="ok",topic="inventory_levels/update"} 2`)
	assert.Contains(t, w.Body.String(), `webhook_events_total{status="rejected",topic="inventory_levels/update"} 1`)
	assert.Contains(t, w.Body.String(), `webhook_events_total{status="ignored",topic="orders/create"} 1`)
}

func TestRouter_OAuthInstall(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/auth/shopify", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodGet, "/auth/shopify?shop=example.com", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/auth/shopify?shop=new.myshopify.com&return_url="+url.QueryEscape("https://admin.example.com/app"), nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	authURL, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "new.myshopify.com", authURL.Host)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	callback := "/auth/callback?" + url.Values{"shop": {"new.myshopify.com"}, "code": {"c"}, "state": {state}, "hmac": {"forged"}}.Encode()
	w = ts.do(t, http.MethodGet, callback, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	callback = "/auth/callback?" + url.Values{"shop": {"new.myshopify.com"}, "code": {"c"}, "state": {state}, "hmac": {validSig}}.Encode()
	w = ts.do(t, http.MethodGet, callback, nil, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	redirect, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "admin.example.com", redirect.Host)
	key := redirect.Query().Get("integration_key")
	require.NotEmpty(t, key)

	w = ts.do(t, http.MethodGet, "/app/billing", nil, map[string]string{"X-Integration-Key": key})
	assert.Equal(t, http.StatusOK, w.Code)

	// a state is single use
	w = ts.do(t, http.MethodGet, callback, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
