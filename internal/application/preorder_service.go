package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

const quotaLockTTL = 10 * time.Second

// SavePreOrderInput is the merchant's pre-order form for one variant
type SavePreOrderInput struct {
	ProductID     string  `json:"productId" validate:"required"`
	VariantID     string  `json:"variantId" validate:"required"`
	Enabled       bool    `json:"enabled"`
	ExpectedDate  string  `json:"expectedDate"`
	LimitQuantity *int    `json:"limitQuantity" validate:"omitempty,gt=0"`
	CustomText    *string `json:"customText" validate:"omitempty,max=500"`
}

var preOrderMessages = map[string]string{
	"ProductID":     "Product ID and Variant ID are required",
	"VariantID":     "Product ID and Variant ID are required",
	"LimitQuantity": "limitQuantity must be positive",
	"CustomText":    "customText must be at most 500 characters",
}

// PreOrderService manages pre-order settings under the shop's plan quota
type PreOrderService struct {
	repo    ports.PreOrderRepository
	billing *BillingService
	locker  ports.Locker
	metrics ports.Recorder
	logger  zerolog.Logger
}

// NewPreOrderService creates a new pre-order service
func NewPreOrderService(
	repo ports.PreOrderRepository,
	billing *BillingService,
	locker ports.Locker,
	metrics ports.Recorder,
	logger zerolog.Logger,
) *PreOrderService {
	return &PreOrderService{
		repo:    repo,
		billing: billing,
		locker:  locker,
		metrics: metrics,
		logger:  logger,
	}
}

// List returns the shop's settings, newest first
func (s *PreOrderService) List(ctx context.Context, shopDomain string) ([]*domain.PreOrderSetting, error) {
	settings, err := s.repo.ListByShop(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to list pre-orders: %w", err)
	}
	return settings, nil
}

// GetForVariant returns the setting of a variant or nil. Accepts numeric ids.
func (s *PreOrderService) GetForVariant(ctx context.Context, shopDomain, variantID string) (*domain.PreOrderSetting, error) {
	setting, err := s.repo.GetByVariant(ctx, shopDomain, domain.VariantGID(variantID))
	if err != nil {
		return nil, fmt.Errorf("failed to get pre-order: %w", err)
	}
	return setting, nil
}

// Save creates or updates the setting of a variant. Enabling a setting
// counts against the plan's pre-order quota; disabling never does.
func (s *PreOrderService) Save(ctx context.Context, shopDomain string, input SavePreOrderInput) (*domain.PreOrderSetting, error) {
	input.ProductID = strings.TrimSpace(input.ProductID)
	input.VariantID = strings.TrimSpace(input.VariantID)
	if err := validateInput(input, preOrderMessages); err != nil {
		s.metrics.PreOrderSaved("invalid")
		return nil, err
	}

	setting := &domain.PreOrderSetting{
		ShopDomain:    shopDomain,
		ProductID:     domain.ProductGID(input.ProductID),
		VariantID:     domain.VariantGID(input.VariantID),
		Enabled:       input.Enabled,
		LimitQuantity: input.LimitQuantity,
		CustomText:    trimPtr(input.CustomText),
	}
	if input.ExpectedDate != "" {
		d, err := ParseExpectedDate(input.ExpectedDate)
		if err != nil {
			s.metrics.PreOrderSaved("invalid")
			return nil, err
		}
		setting.ExpectedDate = &d
	}

	if !setting.Enabled {
		return s.persist(ctx, setting)
	}

	unlock, err := s.locker.Lock(ctx, "preorder:quota:"+shopDomain, quotaLockTTL)
	if err != nil {
		s.metrics.PreOrderSaved("busy")
		return nil, err
	}
	defer unlock()

	if err := s.checkQuota(ctx, setting); err != nil {
		return nil, err
	}
	return s.persist(ctx, setting)
}

func (s *PreOrderService) checkQuota(ctx context.Context, setting *domain.PreOrderSetting) error {
	sub, limits, err := s.billing.Limits(ctx, setting.ShopDomain)
	if err != nil {
		return err
	}
	if limits.MaxPreOrders.Unbounded() {
		return nil
	}

	count, err := s.repo.CountEnabledExcept(ctx, setting.ShopDomain, setting.ProductID, setting.VariantID)
	if err != nil {
		return fmt.Errorf("failed to count pre-orders: %w", err)
	}
	if !limits.MaxPreOrders.Allows(count + 1) {
		s.metrics.PreOrderSaved("limit_exceeded")
		s.logger.Info().
			Str("shop", setting.ShopDomain).
			Str("plan", string(sub.Plan)).
			Int64("enabled", count).
			Msg("Pre-order quota reached")
		return &domain.LimitExceededError{Plan: sub.Plan, Resource: domain.ResourcePreOrders, Limit: limits.MaxPreOrders}
	}
	return nil
}

func (s *PreOrderService) persist(ctx context.Context, setting *domain.PreOrderSetting) (*domain.PreOrderSetting, error) {
	saved, err := s.repo.Save(ctx, setting)
	if err != nil {
		s.metrics.PreOrderSaved("error")
		s.logger.Error().Err(err).Str("shop", setting.ShopDomain).Str("variant", setting.VariantID).Msg("Failed to save pre-order")
		return nil, fmt.Errorf("failed to save pre-order: %w", err)
	}
	s.metrics.PreOrderSaved("ok")
	s.logger.Info().
		Str("shop", saved.ShopDomain).
		Str("variant", saved.VariantID).
		Bool("enabled", saved.Enabled).
		Msg("Pre-order saved")
	return saved, nil
}

// Delete removes a setting of the shop
func (s *PreOrderService) Delete(ctx context.Context, shopDomain, id string) error {
	if err := s.repo.Delete(ctx, shopDomain, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete pre-order: %w", err)
	}
	s.logger.Info().Str("shop", shopDomain).Str("id", id).Msg("Pre-order deleted")
	return nil
}

// PreOrderPage is the products page data
type PreOrderPage struct {
	Subscription *domain.Subscription      `json:"subscription"`
	Limits       domain.PlanLimits         `json:"limits"`
	EnabledCount int                       `json:"enabledCount"`
	PreOrders    []*domain.PreOrderSetting `json:"preOrders"`
}

// PageData returns what the products page renders
func (s *PreOrderService) PageData(ctx context.Context, shopDomain string) (*PreOrderPage, error) {
	sub, limits, err := s.billing.Limits(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	settings, err := s.List(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	enabled := 0
	for _, p := range settings {
		if p.Enabled {
			enabled++
		}
	}
	return &PreOrderPage{
		Subscription: sub,
		Limits:       limits,
		EnabledCount: enabled,
		PreOrders:    settings,
	}, nil
}

// ParseExpectedDate accepts a calendar date or an RFC 3339 timestamp
func ParseExpectedDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.NewValidationError("ExpectedDate", "expectedDate must be a date (YYYY-MM-DD)")
}
