package ports

import (
	"context"
	"time"

	"shopify-preorder-layer/internal/domain"
)

// EncryptionService encrypts secrets kept at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Locker serializes check-then-act sequences across requests. Lock blocks
// until the key is held or the wait budget is spent (domain.ErrBusy).
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RestockNotice is what customers on a waitlist are told
type RestockNotice struct {
	ShopDomain   string
	VariantID    string
	ProductTitle string
	Entries      []*domain.WaitlistEntry
}

// Notifier delivers back-in-stock messages
type Notifier interface {
	NotifyRestock(ctx context.Context, notice RestockNotice) error
}
