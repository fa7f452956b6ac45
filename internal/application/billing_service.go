package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ErrChargeNotActive is returned when Shopify has no active charge for the
// plan the merchant came back with
var ErrChargeNotActive = errors.New("no active charge for plan")

// AccessTokenSource yields the decrypted Admin API token of a shop
type AccessTokenSource interface {
	AccessToken(ctx context.Context, shopDomain string) (string, error)
}

// BillingService owns the subscription of each shop and the plan change flow
type BillingService struct {
	subscriptions ports.SubscriptionRepository
	billing       ports.BillingProvider
	tokens        AccessTokenSource
	logger        zerolog.Logger
	appURL        string
	testCharges   bool
}

// NewBillingService creates a new billing service
func NewBillingService(
	subscriptions ports.SubscriptionRepository,
	billing ports.BillingProvider,
	tokens AccessTokenSource,
	logger zerolog.Logger,
	appURL string,
	testCharges bool,
) *BillingService {
	return &BillingService{
		subscriptions: subscriptions,
		billing:       billing,
		tokens:        tokens,
		logger:        logger,
		appURL:        strings.TrimSuffix(appURL, "/"),
		testCharges:   testCharges,
	}
}

// GetSubscription returns the stored subscription of a shop, or FREE/active
// when there is none. The default is never persisted.
func (s *BillingService) GetSubscription(ctx context.Context, shopDomain string) (*domain.Subscription, error) {
	sub, err := s.subscriptions.GetByShop(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return domain.DefaultSubscription(shopDomain), nil
	}
	return sub, nil
}

// SetSubscription records a plan decision. Transitions are not validated
// here; callers confirm payment first.
func (s *BillingService) SetSubscription(ctx context.Context, shopDomain string, plan domain.Plan, status domain.SubscriptionStatus) (*domain.Subscription, error) {
	if status == "" {
		status = domain.StatusActive
	}
	sub := &domain.Subscription{
		ShopDomain: shopDomain,
		Plan:       plan,
		Status:     status,
	}
	if err := s.subscriptions.Upsert(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Str("plan", string(plan)).Msg("Failed to save subscription")
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("plan", string(plan)).
		Str("status", string(status)).
		Msg("Subscription updated")

	return s.GetSubscription(ctx, shopDomain)
}

// IsPlanActive reports whether the shop's subscription is active on one of plans
func (s *BillingService) IsPlanActive(ctx context.Context, shopDomain string, plans ...domain.Plan) (bool, error) {
	sub, err := s.GetSubscription(ctx, shopDomain)
	if err != nil {
		return false, err
	}
	return sub.IsActiveOn(plans...), nil
}

// Limits returns the quotas the shop currently has
func (s *BillingService) Limits(ctx context.Context, shopDomain string) (*domain.Subscription, domain.PlanLimits, error) {
	sub, err := s.GetSubscription(ctx, shopDomain)
	if err != nil {
		return nil, domain.PlanLimits{}, err
	}
	return sub, domain.LimitsFor(sub.Plan), nil
}

// BillingOverview is the billing page data
type BillingOverview struct {
	Subscription *domain.Subscription `json:"subscription"`
	Limits       domain.PlanLimits    `json:"limits"`
}

// Overview returns the current plan and its limits
func (s *BillingService) Overview(ctx context.Context, shopDomain string) (*BillingOverview, error) {
	sub, limits, err := s.Limits(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return &BillingOverview{Subscription: sub, Limits: limits}, nil
}

// PlanChoice is the outcome of choosing a plan. Either the subscription
// changed right away (FREE) or the merchant must approve a charge.
type PlanChoice struct {
	Subscription    *domain.Subscription `json:"subscription,omitempty"`
	ConfirmationURL string               `json:"confirmationUrl,omitempty"`
}

// ChoosePlan switches to FREE immediately or starts a Shopify charge for a
// paid plan
func (s *BillingService) ChoosePlan(ctx context.Context, shopDomain string, plan domain.Plan) (*PlanChoice, error) {
	offer, paid := domain.OfferFor(plan)
	if !paid {
		sub, err := s.SetSubscription(ctx, shopDomain, plan, domain.StatusActive)
		if err != nil {
			return nil, err
		}
		return &PlanChoice{Subscription: sub}, nil
	}

	token, err := s.tokens.AccessToken(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	returnURL := s.appURL + "/app/billing/callback?" + url.Values{
		"shop": {shopDomain},
		"plan": {string(plan)},
	}.Encode()
	confirmationURL, err := s.billing.CreateSubscription(ctx, shopDomain, token, offer, returnURL, s.testCharges)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Str("plan", string(plan)).Msg("Failed to create app subscription")
		return nil, domain.NewExternalError("create app subscription", err)
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("plan", string(plan)).
		Bool("test", s.testCharges).
		Msg("Created app subscription, awaiting merchant approval")

	return &PlanChoice{ConfirmationURL: confirmationURL}, nil
}

// ConfirmPlan records a paid plan once Shopify reports an active charge for
// it, matched by plan name or by the charge_id Shopify appended to the return
// URL. FREE has no charge to verify and is only set through ChoosePlan.
func (s *BillingService) ConfirmPlan(ctx context.Context, shopDomain string, plan domain.Plan, chargeID string) (*domain.Subscription, error) {
	offer, paid := domain.OfferFor(plan)
	if !paid {
		s.logger.Warn().
			Str("shop", shopDomain).
			Str("plan", string(plan)).
			Msg("Refusing charge confirmation for unpaid plan")
		return nil, domain.NewValidationError("plan", "Only paid plans can be confirmed")
	}

	token, err := s.tokens.AccessToken(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	active, err := s.billing.ActiveSubscriptions(ctx, shopDomain, token)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to verify charge")
		return nil, domain.NewExternalError("list app subscriptions", err)
	}

	for _, as := range active {
		if !strings.EqualFold(as.Status, "ACTIVE") {
			continue
		}
		if as.Name == offer.Name || (chargeID != "" && as.ID == "gid://shopify/AppSubscription/"+chargeID) {
			s.logger.Info().
				Str("shop", shopDomain).
				Str("plan", string(plan)).
				Str("chargeId", chargeID).
				Str("subscriptionId", as.ID).
				Msg("Charge verified")
			return s.SetSubscription(ctx, shopDomain, plan, domain.StatusActive)
		}
	}

	s.logger.Warn().
		Str("shop", shopDomain).
		Str("plan", string(plan)).
		Str("chargeId", chargeID).
		Int("activeSubscriptions", len(active)).
		Msg("No active charge found for plan")
	return nil, ErrChargeNotActive
}
