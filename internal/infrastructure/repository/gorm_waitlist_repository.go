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
)

// GormWaitlistRepository implements WaitlistRepository on a relational database
type GormWaitlistRepository struct {
	db *gorm.DB
}

// NewGormWaitlistRepository creates a new waitlist repository
func NewGormWaitlistRepository(db *gorm.DB) ports.WaitlistRepository {
	return &GormWaitlistRepository{db: db}
}

func (r *GormWaitlistRepository) FindUnnotified(ctx context.Context, shopDomain, variantID, email string) (*domain.WaitlistEntry, error) {
	var m entity.WaitlistModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND variant_id = ? AND email = ? AND notified = ?", shopDomain, variantID, email, false).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find waitlist entry: %w", err)
	}
	return m.ToDomain(), nil
}

// Create inserts the entry and fills in its id and creation time
func (r *GormWaitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Notified = false

	if err := r.db.WithContext(ctx).Create(entity.WaitlistModelFromDomain(entry)).Error; err != nil {
		if IsDuplicateKeyErr(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

func (r *GormWaitlistRepository) ListByShop(ctx context.Context, shopDomain string) ([]*domain.WaitlistEntry, error) {
	return r.list(ctx, r.db.Where("shop_domain = ?", shopDomain))
}

func (r *GormWaitlistRepository) ListUnnotifiedByVariant(ctx context.Context, shopDomain, variantID string) ([]*domain.WaitlistEntry, error) {
	return r.list(ctx, r.db.Where("shop_domain = ? AND variant_id = ? AND notified = ?", shopDomain, variantID, false))
}

func (r *GormWaitlistRepository) list(ctx context.Context, stmt *gorm.DB) ([]*domain.WaitlistEntry, error) {
	var rows []entity.WaitlistModel
	if err := stmt.WithContext(ctx).Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	entries := make([]*domain.WaitlistEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries, nil
}

func (r *GormWaitlistRepository) CountUnnotified(ctx context.Context, shopDomain string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.WaitlistModel{}).
		Where("shop_domain = ? AND notified = ?", shopDomain, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	return count, nil
}

func (r *GormWaitlistRepository) MarkNotified(ctx context.Context, shopDomain string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&entity.WaitlistModel{}).
		Where("shop_domain = ? AND id IN ? AND notified = ?", shopDomain, ids, false).
		Update("notified", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark waitlist entries notified: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormWaitlistRepository) Delete(ctx context.Context, shopDomain, id string) error {
	res := r.db.WithContext(ctx).
		Where("shop_domain = ? AND id = ?", shopDomain, id).
		Delete(&entity.WaitlistModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("waitlist entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
