package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/repository/entity"
	"shopify-preorder-layer/internal/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubscriptionRepository implements SubscriptionRepository on a relational database
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new subscription repository
func NewGormSubscriptionRepository(db *gorm.DB) ports.SubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// GetByShop returns the subscription of a shop or nil
func (r *GormSubscriptionRepository) GetByShop(ctx context.Context, shopDomain string) (*domain.Subscription, error) {
	var m entity.SubscriptionModel
	err := r.db.WithContext(ctx).Where("shop_domain = ?", shopDomain).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	sub, err := m.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode subscription: %w", err)
	}
	return sub, nil
}

// Upsert replaces plan and status of the shop's subscription, creating it if needed
func (r *GormSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	now := time.Now().UTC()
	m := entity.SubscriptionModelFromDomain(sub)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan", "status", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}
