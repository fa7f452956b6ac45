package webhook_handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"shopify-preorder-layer/internal/application"
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

const shop = "demo.myshopify.com"

type tokens struct{ err error }

func (t tokens) AccessToken(context.Context, string) (string, error) { return "shpat_test", t.err }

type catalog struct {
	byItem map[int64]*domain.VariantRef
	err    error
}

func (c *catalog) VariantForInventoryItem(_ context.Context, _ string, _ string, id int64) (*domain.VariantRef, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.byItem[id], nil
}

func (c *catalog) DescribeVariant(context.Context, string, string, string, string) (*domain.VariantRef, error) {
	return nil, nil
}

type notifier struct{ sent int }

func (n *notifier) NotifyRestock(_ context.Context, notice ports.RestockNotice) error {
	n.sent += len(notice.Entries)
	return nil
}

type noBilling struct{}

func (noBilling) CreateSubscription(context.Context, string, string, domain.PlanOffer, string, bool) (string, error) {
	return "", errors.New("not used")
}

func (noBilling) ActiveSubscriptions(context.Context, string, string) ([]ports.AppSubscription, error) {
	return nil, nil
}

type inventoryEnv struct {
	waitlist ports.WaitlistRepository
	service  *application.WaitlistService
	catalog  *catalog
	notifier *notifier
	handler  *InventoryLevelsHandler
}

func newInventoryEnv(t *testing.T, tok tokens) *inventoryEnv {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	logger := zerolog.Nop()
	env := &inventoryEnv{
		waitlist: repository.NewGormWaitlistRepository(db),
		catalog: &catalog{byItem: map[int64]*domain.VariantRef{
			555: {VariantID: "gid://shopify/ProductVariant/11", ProductTitle: "Tee"},
		}},
		notifier: &notifier{},
	}
	billing := application.NewBillingService(repository.NewGormSubscriptionRepository(db), noBilling{}, tok, logger, "https://app.example.com", true)
	env.service = application.NewWaitlistService(env.waitlist, billing, env.catalog, tok, env.notifier,
		lock.NewLocalLocker(time.Second), metrics.New(false), logger)
	env.handler = NewInventoryLevelsHandler(logger, tok, env.catalog, env.service)
	return env
}

func (e *inventoryEnv) join(t *testing.T, variant, email string) {
	t.Helper()
	_, _, err := e.service.Join(context.Background(), application.JoinWaitlistInput{
		ShopDomain: shop, ProductID: "1", VariantID: variant, Email: email,
	})
	require.NoError(t, err)
}

func inventoryEvent(t *testing.T, item int64, available int64) *domain.WebhookEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"inventory_item_id": item,
		"location_id":       1,
		"available":         available,
	})
	require.NoError(t, err)
	return &domain.WebhookEvent{Topic: domain.TopicInventoryLevelsUpdate, Shop: shop, Payload: payload, Verified: true}
}

func TestInventoryLevelsHandler_RestockNotifiesPending(t *testing.T) {
	env := newInventoryEnv(t, tokens{})
	env.join(t, "11", "a@example.com")
	env.join(t, "11", "b@example.com")
	env.join(t, "11", "c@example.com")

	assert.True(t, env.handler.CanHandle(domain.TopicInventoryLevelsUpdate))
	assert.False(t, env.handler.CanHandle(domain.TopicAppUninstalled))

	require.NoError(t, env.handler.Handle(context.Background(), inventoryEvent(t, 555, 4)))
	assert.Equal(t, 3, env.notifier.sent)

	pending, err := env.waitlist.CountUnnotified(context.Background(), shop)
	require.NoError(t, err)
	assert.Zero(t, pending)

	// a second restock finds nobody left to notify
	require.NoError(t, env.handler.Handle(context.Background(), inventoryEvent(t, 555, 9)))
	assert.Equal(t, 3, env.notifier.sent)
}

func TestInventoryLevelsHandler_NoOps(t *testing.T) {
	env := newInventoryEnv(t, tokens{})
	env.join(t, "11", "a@example.com")

	t.Run("decrement", func(t *testing.T) {
		require.NoError(t, env.handler.Handle(context.Background(), inventoryEvent(t, 555, 0)))
	})
	t.Run("untracked item", func(t *testing.T) {
		n, err := env.handler.Restock(context.Background(), shop, domain.InventoryLevelUpdate{
			InventoryItemID: int64Ptr(999),
			Available:       int64Ptr(5),
		})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	assert.Zero(t, env.notifier.sent)
	pending, err := env.waitlist.CountUnnotified(context.Background(), shop)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestInventoryLevelsHandler_Errors(t *testing.T) {
	t.Run("malformed payload", func(t *testing.T) {
		env := newInventoryEnv(t, tokens{})
		err := env.handler.Handle(context.Background(), &domain.WebhookEvent{Shop: shop, Payload: []byte("{")})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newInventoryEnv(t, tokens{})
		err := env.handler.Handle(context.Background(), &domain.WebhookEvent{Shop: shop, Payload: []byte(`{"location_id":1}`)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("catalog failure", func(t *testing.T) {
		env := newInventoryEnv(t, tokens{})
		env.join(t, "11", "a@example.com")
		env.catalog.err = errors.New("graphql: internal error")

		err := env.handler.Handle(context.Background(), inventoryEvent(t, 555, 3))
		assert.ErrorIs(t, err, domain.ErrExternal)
		assert.Zero(t, env.notifier.sent)
	})

	t.Run("shop not installed", func(t *testing.T) {
		env := newInventoryEnv(t, tokens{err: domain.ErrNotFound})
		err := env.handler.Handle(context.Background(), inventoryEvent(t, 555, 3))
		assert.ErrorIs(t, err, domain.ErrExternal)
	})
}

type auth struct{}

func (auth) GenerateAuthURL(shop string, _ []string, _ string, state string) (string, error) {
	return "https://" + shop + "/admin/oauth/authorize?state=" + state, nil
}

func (auth) VerifyCallback(*url.URL) bool { return true }

func (auth) ExchangeToken(context.Context, string, string) (string, error) { return "shpat_live", nil }

func (auth) VerifyWebhook(*http.Request) bool { return true }

func TestAppUninstalledHandler_ClearsToken(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	enc, err := encryption.NewService("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	shops := repository.NewGormShopRepository(db)
	installs := application.NewInstallService(shops, state.NewMemoryStore(), auth{}, enc, zerolog.Nop(), "https://app.example.com", nil)

	encrypted, err := enc.Encrypt("shpat_live")
	require.NoError(t, err)
	require.NoError(t, shops.Save(ctx, &domain.Shop{Domain: shop, AccessToken: encrypted, IntegrationKey: "key-1", InstalledAt: time.Now()}))

	h := NewAppUninstalledHandler(zerolog.Nop(), installs)
	require.True(t, h.CanHandle(domain.TopicAppUninstalled))
	require.NoError(t, h.Handle(ctx, &domain.WebhookEvent{
		Topic:   domain.TopicAppUninstalled,
		Payload: []byte(`{"myshopify_domain":"demo.myshopify.com","domain":"shop.example.com"}`),
	}))

	stored, err := shops.GetByDomain(ctx, shop)
	require.NoError(t, err)
	assert.False(t, stored.Installed())
	assert.NotNil(t, stored.UninstalledAt)

	_, err = installs.Authenticate(ctx, "key-1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// unknown shops are acknowledged
	require.NoError(t, h.Handle(ctx, &domain.WebhookEvent{Topic: domain.TopicAppUninstalled, Shop: "gone.myshopify.com"}))

	err = h.Handle(ctx, &domain.WebhookEvent{Topic: domain.TopicAppUninstalled, Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func int64Ptr(v int64) *int64 { return &v }
