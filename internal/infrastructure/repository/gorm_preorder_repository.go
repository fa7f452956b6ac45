package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/repository/entity"
	"shopify-preorder-layer/internal/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPreOrderRepository implements PreOrderRepository on a relational database
type GormPreOrderRepository struct {
	db *gorm.DB
}

// NewGormPreOrderRepository creates a new pre-order repository
func NewGormPreOrderRepository(db *gorm.DB) ports.PreOrderRepository {
	return &GormPreOrderRepository{db: db}
}

func (r *GormPreOrderRepository) ListByShop(ctx context.Context, shopDomain string) ([]*domain.PreOrderSetting, error) {
	var rows []entity.PreOrderModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ?", shopDomain).
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pre-orders: %w", err)
	}

	settings := make([]*domain.PreOrderSetting, 0, len(rows))
	for i := range rows {
		settings = append(settings, rows[i].ToDomain())
	}
	return settings, nil
}

func (r *GormPreOrderRepository) GetByVariant(ctx context.Context, shopDomain, variantID string) (*domain.PreOrderSetting, error) {
	var m entity.PreOrderModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND variant_id = ?", shopDomain, variantID).
		Order("updated_at desc").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pre-order: %w", err)
	}
	return m.ToDomain(), nil
}

func (r *GormPreOrderRepository) CountEnabledExcept(ctx context.Context, shopDomain, productID, variantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PreOrderModel{}).
		Where("shop_domain = ? AND enabled = ?", shopDomain, true).
		Where("NOT (product_id = ? AND variant_id = ?)", productID, variantID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pre-orders: %w", err)
	}
	return count, nil
}

// Save upserts on (shop_domain, product_id, variant_id) and returns the stored row
func (r *GormPreOrderRepository) Save(ctx context.Context, setting *domain.PreOrderSetting) (*domain.PreOrderSetting, error) {
	now := time.Now().UTC()
	m := entity.PreOrderModelFromDomain(setting)
	m.ID = uuid.NewString()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	var saved entity.PreOrderModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shop_domain"}, {Name: "product_id"}, {Name: "variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"enabled", "expected_date", "limit_quantity", "custom_text", "updated_at",
			}),
		}).Create(m).Error
		if err != nil {
			return err
		}
		return tx.Where("shop_domain = ? AND product_id = ? AND variant_id = ?",
			m.ShopDomain, m.ProductID, m.VariantID).First(&saved).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save pre-order: %w", err)
	}
	return saved.ToDomain(), nil
}

func (r *GormPreOrderRepository) Delete(ctx context.Context, shopDomain, id string) error {
	res := r.db.WithContext(ctx).
		Where("shop_domain = ? AND id = ?", shopDomain, id).
		Delete(&entity.PreOrderModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete pre-order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("pre-order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
