package application

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/database"
	"shopify-preorder-layer/internal/infrastructure/lock"
	"shopify-preorder-layer/internal/infrastructure/repository"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testShop = "demo.myshopify.com"

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) AccessToken(context.Context, string) (string, error) {
	return f.token, f.err
}

type fakeBilling struct {
	mu         sync.Mutex
	offers     []domain.PlanOffer
	returnURLs []string
	active     []ports.AppSubscription
	createErr  error
	listErr    error
}

func (f *fakeBilling) CreateSubscription(_ context.Context, _ string, _ string, offer domain.PlanOffer, returnURL string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.offers = append(f.offers, offer)
	f.returnURLs = append(f.returnURLs, returnURL)
	return "https://demo.myshopify.com/admin/charges/confirm", nil
}

func (f *fakeBilling) ActiveSubscriptions(context.Context, string, string) ([]ports.AppSubscription, error) {
	return f.active, f.listErr
}

type fakeCatalog struct {
	mu        sync.Mutex
	byItem    map[int64]*domain.VariantRef
	byVariant map[string]*domain.VariantRef
	err       error
	describes int
}

func (f *fakeCatalog) VariantForInventoryItem(_ context.Context, _ string, _ string, id int64) (*domain.VariantRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byItem[id], nil
}

func (f *fakeCatalog) DescribeVariant(_ context.Context, _ string, _ string, _ string, variantID string) (*domain.VariantRef, error) {
	f.mu.Lock()
	f.describes++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.byVariant[variantID], nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []ports.RestockNotice
	err     error
}

func (f *fakeNotifier) NotifyRestock(_ context.Context, notice ports.RestockNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, notice)
	return nil
}

type fakeAuth struct {
	callbackOK  bool
	token       string
	exchangeErr error
}

func (f *fakeAuth) GenerateAuthURL(shop string, _ []string, redirectURI string, state string) (string, error) {
	return "https://" + shop + "/admin/oauth/authorize?" + url.Values{
		"redirect_uri": {redirectURI},
		"state":        {state},
	}.Encode(), nil
}

func (f *fakeAuth) VerifyCallback(*url.URL) bool { return f.callbackOK }

func (f *fakeAuth) ExchangeToken(context.Context, string, string) (string, error) {
	return f.token, f.exchangeErr
}

func (f *fakeAuth) VerifyWebhook(*http.Request) bool { return true }

// recorder counts metric events by name and label
type recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecorder() *recorder {
	return &recorder{counts: make(map[string]int)}
}

func (r *recorder) add(key string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key] += n
}

func (r *recorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

func (r *recorder) PreOrderSaved(result string) { r.add("preorder:"+result, 1) }
func (r *recorder) WaitlistJoined(result string) { r.add("waitlist:"+result, 1) }
func (r *recorder) WaitlistNotified(count int) { r.add("notified", count) }
func (r *recorder) PlanGateDenied(variant string) { r.add("gate:"+variant, 1) }
func (r *recorder) WebhookProcessed(topic, status string) { r.add("webhook:"+topic+":"+status, 1) }

type testEnv struct {
	subs      ports.SubscriptionRepository
	preorders ports.PreOrderRepository
	waitlist  ports.WaitlistRepository
	billingP  *fakeBilling
	catalog   *fakeCatalog
	notifier  *fakeNotifier
	metrics   *recorder

	billing     *BillingService
	preOrder    *PreOrderService
	waitlistSvc *WaitlistService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	env := &testEnv{
		subs:      repository.NewGormSubscriptionRepository(db),
		preorders: repository.NewGormPreOrderRepository(db),
		waitlist:  repository.NewGormWaitlistRepository(db),
		billingP:  &fakeBilling{},
		catalog:   &fakeCatalog{byItem: map[int64]*domain.VariantRef{}, byVariant: map[string]*domain.VariantRef{}},
		notifier:  &fakeNotifier{},
		metrics:   newRecorder(),
	}

	logger := zerolog.Nop()
	tokens := fakeTokens{token: "shpat_test"}
	locker := lock.NewLocalLocker(2 * time.Second)

	env.billing = NewBillingService(env.subs, env.billingP, tokens, logger, "https://app.example.com/", true)
	env.preOrder = NewPreOrderService(env.preorders, env.billing, locker, env.metrics, logger)
	env.waitlistSvc = NewWaitlistService(env.waitlist, env.billing, env.catalog, tokens, env.notifier, locker, env.metrics, logger)
	return env
}

func (e *testEnv) setPlan(t *testing.T, plan domain.Plan, status domain.SubscriptionStatus) {
	t.Helper()
	_, err := e.billing.SetSubscription(context.Background(), testShop, plan, status)
	require.NoError(t, err)
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
