package entity

import (
	"fmt"
	"strings"
	"time"

	"shopify-preorder-layer/internal/domain"
)

// SubscriptionModel is the subscriptions table. One row per shop.
type SubscriptionModel struct {
	ShopDomain string    `gorm:"primaryKey;size:255"`
	Plan       string    `gorm:"size:16;not null"`
	Status     string    `gorm:"size:16;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

// ToDomain converts the row to a domain entity. Rows with a plan this build
// does not know are rejected.
func (m *SubscriptionModel) ToDomain() (*domain.Subscription, error) {
	plan, err := domain.ParsePlan(m.Plan)
	if err != nil {
		return nil, fmt.Errorf("subscription of %s has unknown plan %q", m.ShopDomain, m.Plan)
	}
	return &domain.Subscription{
		ShopDomain: m.ShopDomain,
		Plan:       plan,
		Status:     domain.SubscriptionStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// SubscriptionModelFromDomain converts a domain entity to a row
func SubscriptionModelFromDomain(s *domain.Subscription) *SubscriptionModel {
	return &SubscriptionModel{
		ShopDomain: s.ShopDomain,
		Plan:       string(s.Plan),
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// PreOrderModel is the preorder_settings table
type PreOrderModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	ShopDomain    string `gorm:"size:255;not null;uniqueIndex:idx_preorder_variant,priority:1"`
	ProductID     string `gorm:"size:255;not null;uniqueIndex:idx_preorder_variant,priority:2"`
	VariantID     string `gorm:"size:255;not null;uniqueIndex:idx_preorder_variant,priority:3"`
	Enabled       bool   `gorm:"not null"`
	ExpectedDate  *time.Time
	LimitQuantity *int
	CustomText    *string
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (PreOrderModel) TableName() string { return "preorder_settings" }

// ToDomain converts the row to a domain entity
func (m *PreOrderModel) ToDomain() *domain.PreOrderSetting {
	return &domain.PreOrderSetting{
		ID:            m.ID,
		ShopDomain:    m.ShopDomain,
		ProductID:     m.ProductID,
		VariantID:     m.VariantID,
		Enabled:       m.Enabled,
		ExpectedDate:  m.ExpectedDate,
		LimitQuantity: m.LimitQuantity,
		CustomText:    m.CustomText,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// PreOrderModelFromDomain converts a domain entity to a row
func PreOrderModelFromDomain(p *domain.PreOrderSetting) *PreOrderModel {
	return &PreOrderModel{
		ID:            p.ID,
		ShopDomain:    p.ShopDomain,
		ProductID:     p.ProductID,
		VariantID:     p.VariantID,
		Enabled:       p.Enabled,
		ExpectedDate:  p.ExpectedDate,
		LimitQuantity: p.LimitQuantity,
		CustomText:    p.CustomText,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// WaitlistModel is the waitlist_entries table. The partial unique index on
// pending rows is created by the migration.
type WaitlistModel struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ShopDomain string    `gorm:"size:255;not null;index:idx_waitlist_shop_variant,priority:1"`
	ProductID  string    `gorm:"size:255;not null"`
	VariantID  string    `gorm:"size:255;not null;index:idx_waitlist_shop_variant,priority:2"`
	Email      string    `gorm:"size:320;not null"`
	Notified   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (WaitlistModel) TableName() string { return "waitlist_entries" }

// ToDomain converts the row to a domain entity
func (m *WaitlistModel) ToDomain() *domain.WaitlistEntry {
	return &domain.WaitlistEntry{
		ID:         m.ID,
		ShopDomain: m.ShopDomain,
		ProductID:  m.ProductID,
		VariantID:  m.VariantID,
		Email:      m.Email,
		Notified:   m.Notified,
		CreatedAt:  m.CreatedAt,
	}
}

// WaitlistModelFromDomain converts a domain entity to a row
func WaitlistModelFromDomain(e *domain.WaitlistEntry) *WaitlistModel {
	return &WaitlistModel{
		ID:         e.ID,
		ShopDomain: e.ShopDomain,
		ProductID:  e.ProductID,
		VariantID:  e.VariantID,
		Email:      e.Email,
		Notified:   e.Notified,
		CreatedAt:  e.CreatedAt,
	}
}

// ShopModel is the shops table
type ShopModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Domain         string `gorm:"size:255;not null;uniqueIndex"`
	AccessToken    string `gorm:"type:text"`
	Scopes         string `gorm:"size:1024"`
	IntegrationKey string `gorm:"size:64;not null;uniqueIndex"`
	InstalledAt    time.Time
	UninstalledAt  *time.Time
	UpdatedAt      time.Time
}

func (ShopModel) TableName() string { return "shops" }

// ToDomain converts the row to a domain entity
func (m *ShopModel) ToDomain() *domain.Shop {
	var scopes []string
	if m.Scopes != "" {
		scopes = strings.Split(m.Scopes, ",")
	}
	return &domain.Shop{
		ID:             m.ID,
		Domain:         m.Domain,
		AccessToken:    m.AccessToken,
		Scopes:         scopes,
		IntegrationKey: m.IntegrationKey,
		InstalledAt:    m.InstalledAt,
		UninstalledAt:  m.UninstalledAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ShopModelFromDomain converts a domain entity to a row
func ShopModelFromDomain(s *domain.Shop) *ShopModel {
	return &ShopModel{
		ID:             s.ID,
		Domain:         s.Domain,
		AccessToken:    s.AccessToken,
		Scopes:         strings.Join(s.Scopes, ","),
		IntegrationKey: s.IntegrationKey,
		InstalledAt:    s.InstalledAt,
		UninstalledAt:  s.UninstalledAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
