package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

const (
	notifyLockTTL = 30 * time.Second
	unknownTitle  = "Unknown"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// JoinWaitlistInput is a storefront signup
type JoinWaitlistInput struct {
	ShopDomain string `json:"shopDomain" validate:"required"`
	ProductID  string `json:"productId" validate:"required"`
	VariantID  string `json:"variantId" validate:"required"`
	Email      string `json:"email" validate:"required"`
}

var waitlistMessages = map[string]string{
	"ShopDomain": "shopDomain, productId, variantId, and email are required",
	"ProductID":  "shopDomain, productId, variantId, and email are required",
	"VariantID":  "shopDomain, productId, variantId, and email are required",
	"Email":      "shopDomain, productId, variantId, and email are required",
}

// WaitlistService manages back-in-stock signups and restock notification
type WaitlistService struct {
	repo     ports.WaitlistRepository
	billing  *BillingService
	catalog  ports.Catalog
	tokens   AccessTokenSource
	notifier ports.Notifier
	locker   ports.Locker
	metrics  ports.Recorder
	logger   zerolog.Logger
}

// NewWaitlistService creates a new waitlist service
func NewWaitlistService(
	repo ports.WaitlistRepository,
	billing *BillingService,
	catalog ports.Catalog,
	tokens AccessTokenSource,
	notifier ports.Notifier,
	locker ports.Locker,
	metrics ports.Recorder,
	logger zerolog.Logger,
) *WaitlistService {
	return &WaitlistService{
		repo:     repo,
		billing:  billing,
		catalog:  catalog,
		tokens:   tokens,
		notifier: notifier,
		locker:   locker,
		metrics:  metrics,
		logger:   logger,
	}
}

// Join adds an email to a variant's waitlist. Joining twice while pending
// returns the existing entry with created=false.
func (s *WaitlistService) Join(ctx context.Context, input JoinWaitlistInput) (*domain.WaitlistEntry, bool, error) {
	input.ShopDomain = strings.ToLower(strings.TrimSpace(input.ShopDomain))
	input.ProductID = strings.TrimSpace(input.ProductID)
	input.VariantID = strings.TrimSpace(input.VariantID)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(input, waitlistMessages); err != nil {
		s.metrics.WaitlistJoined("invalid")
		return nil, false, err
	}
	if !emailPattern.MatchString(input.Email) {
		s.metrics.WaitlistJoined("invalid")
		return nil, false, domain.NewValidationError("Email", "Invalid email address")
	}

	productID := domain.ProductGID(input.ProductID)
	variantID := domain.VariantGID(input.VariantID)

	existing, err := s.repo.FindUnnotified(ctx, input.ShopDomain, variantID, input.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up waitlist entry: %w", err)
	}
	if existing != nil {
		s.metrics.WaitlistJoined("duplicate")
		return existing, false, nil
	}

	entry := &domain.WaitlistEntry{
		ShopDomain: input.ShopDomain,
		ProductID:  productID,
		VariantID:  variantID,
		Email:      input.Email,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if !errors.Is(err, ports.ErrDuplicate) {
			s.metrics.WaitlistJoined("error")
			return nil, false, fmt.Errorf("failed to create waitlist entry: %w", err)
		}
		// lost a race with an identical signup
		existing, err := s.repo.FindUnnotified(ctx, input.ShopDomain, variantID, input.Email)
		if err != nil {
			return nil, false, fmt.Errorf("failed to re-read waitlist entry: %w", err)
		}
		if existing == nil {
			return nil, false, errors.New("waitlist entry vanished after duplicate insert")
		}
		s.metrics.WaitlistJoined("duplicate")
		return existing, false, nil
	}

	s.metrics.WaitlistJoined("ok")
	s.logger.Info().
		Str("shop", entry.ShopDomain).
		Str("variant", entry.VariantID).
		Msg("Customer joined waitlist")
	return entry, true, nil
}

// List returns every entry of the shop, newest first
func (s *WaitlistService) List(ctx context.Context, shopDomain string) ([]*domain.WaitlistEntry, error) {
	entries, err := s.repo.ListByShop(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist: %w", err)
	}
	return entries, nil
}

// ListWithDetails decorates entries with product and variant titles. A
// failed lookup yields "Unknown" titles rather than an error.
func (s *WaitlistService) ListWithDetails(ctx context.Context, shopDomain string) ([]*domain.WaitlistEntryView, error) {
	entries, err := s.List(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.WaitlistEntryView, 0, len(entries))
	if len(entries) == 0 {
		return views, nil
	}

	token, err := s.tokens.AccessToken(ctx, shopDomain)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("No access token, waitlist titles unavailable")
	}

	cache := make(map[string]*domain.VariantRef)
	for _, e := range entries {
		view := &domain.WaitlistEntryView{WaitlistEntry: *e, ProductTitle: unknownTitle, VariantTitle: unknownTitle}
		if token != "" {
			ref, seen := cache[e.VariantID]
			if !seen {
				ref, err = s.catalog.DescribeVariant(ctx, shopDomain, token, e.ProductID, e.VariantID)
				if err != nil {
					s.logger.Warn().Err(err).Str("shop", shopDomain).Str("variant", e.VariantID).Msg("Failed to describe variant")
					ref = nil
				}
				cache[e.VariantID] = ref
			}
			if ref != nil {
				if ref.ProductTitle != "" {
					view.ProductTitle = ref.ProductTitle
				}
				if ref.VariantTitle != "" {
					view.VariantTitle = ref.VariantTitle
				}
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// NotifyVariant tells every pending customer of a variant that it is back
// and marks them notified. Entries are only marked after delivery succeeds.
func (s *WaitlistService) NotifyVariant(ctx context.Context, shopDomain, variantID, productTitle string) (int, error) {
	variantID = domain.VariantGID(strings.TrimSpace(variantID))
	if variantID == "" {
		return 0, domain.NewValidationError("variantId", "variantId is required")
	}

	unlock, err := s.locker.Lock(ctx, "waitlist:notify:"+shopDomain+":"+variantID, notifyLockTTL)
	if err != nil {
		return 0, err
	}
	defer unlock()

	entries, err := s.repo.ListUnnotifiedByVariant(ctx, shopDomain, variantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending waitlist entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	notice := ports.RestockNotice{
		ShopDomain:   shopDomain,
		VariantID:    variantID,
		ProductTitle: productTitle,
		Entries:      entries,
	}
	if err := s.notifier.NotifyRestock(ctx, notice); err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Str("variant", variantID).Msg("Failed to deliver restock notice")
		return 0, domain.NewExternalError("notify restock", err)
	}

	marked, err := s.repo.MarkNotified(ctx, shopDomain, domain.IDs(entries))
	if err != nil {
		return 0, fmt.Errorf("failed to mark waitlist entries notified: %w", err)
	}

	s.metrics.WaitlistNotified(int(marked))
	s.logger.Info().
		Str("shop", shopDomain).
		Str("variant", variantID).
		Int64("notified", marked).
		Msg("Waitlist notified")
	return int(marked), nil
}

// Delete removes an entry of the shop
func (s *WaitlistService) Delete(ctx context.Context, shopDomain, id string) error {
	if err := s.repo.Delete(ctx, shopDomain, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete waitlist entry: %w", err)
	}
	return nil
}

// WaitlistPage is the back-in-stock page data. Limits are informational;
// storefront signups are never refused for quota.
type WaitlistPage struct {
	Subscription *domain.Subscription        `json:"subscription"`
	Limits       domain.PlanLimits           `json:"limits"`
	Pending      int64                       `json:"pending"`
	Entries      []*domain.WaitlistEntryView `json:"entries"`
}

// PageData returns what the back-in-stock page renders
func (s *WaitlistService) PageData(ctx context.Context, shopDomain string) (*WaitlistPage, error) {
	sub, limits, err := s.billing.Limits(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.CountUnnotified(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	views, err := s.ListWithDetails(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return &WaitlistPage{Subscription: sub, Limits: limits, Pending: pending, Entries: views}, nil
}
