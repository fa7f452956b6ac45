package repository

import (
	"context"
	"errors"
	"fmt"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/repository/entity"
	"shopify-preorder-layer/internal/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormShopRepository implements ShopRepository on a relational database
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new shop repository
func NewGormShopRepository(db *gorm.DB) ports.ShopRepository {
	return &GormShopRepository{db: db}
}

// Save upserts the shop by domain. The integration key of an existing row is kept.
func (r *GormShopRepository) Save(ctx context.Context, shop *domain.Shop) error {
	m := entity.ShopModelFromDomain(shop)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "scopes", "uninstalled_at", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	var stored entity.ShopModel
	if err := r.db.WithContext(ctx).Where("domain = ?", shop.Domain).First(&stored).Error; err != nil {
		return fmt.Errorf("failed to reload shop: %w", err)
	}
	shop.ID = stored.ID
	shop.IntegrationKey = stored.IntegrationKey
	return nil
}

func (r *GormShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	return r.first(ctx, "domain = ?", shopDomain)
}

func (r *GormShopRepository) GetByIntegrationKey(ctx context.Context, key string) (*domain.Shop, error) {
	return r.first(ctx, "integration_key = ?", key)
}

func (r *GormShopRepository) first(ctx context.Context, query string, arg string) (*domain.Shop, error) {
	var m entity.ShopModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return m.ToDomain(), nil
}
