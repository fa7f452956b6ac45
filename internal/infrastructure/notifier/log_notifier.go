package notifier

import (
	"context"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

// LogNotifier records the intent to send restock emails without sending
// them. No email provider is wired yet.
type LogNotifier struct {
	logger zerolog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyRestock logs one line per recipient
func (n *LogNotifier) NotifyRestock(ctx context.Context, notice ports.RestockNotice) error {
	for _, email := range domain.Emails(notice.Entries) {
		n.logger.Info().
			Str("shop", notice.ShopDomain).
			Str("variantId", notice.VariantID).
			Str("productTitle", notice.ProductTitle).
			Str("email", email).
			Msg("Back in stock notification queued")
	}
	return nil
}
