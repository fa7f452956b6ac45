package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGID(t *testing.T) {
	assert.Equal(t, "gid://shopify/ProductVariant/42", VariantGID("42"))
	assert.Equal(t, "gid://shopify/ProductVariant/42", VariantGID("gid://shopify/ProductVariant/42"))
	assert.Equal(t, "gid://shopify/Product/7", ProductGID(" 7 "))
	assert.Equal(t, "custom-id", VariantGID("custom-id"))
	assert.Equal(t, "", VariantGID(""))
	assert.Equal(t, "gid://shopify/InventoryItem/808", InventoryItemGID(808))
}

func TestErrorKinds(t *testing.T) {
	limitErr := fmt.Errorf("save: %w", &LimitExceededError{Plan: PlanFree, Resource: ResourcePreOrders, Limit: 1})
	assert.True(t, errors.Is(limitErr, ErrLimitExceeded))
	assert.Contains(t, limitErr.Error(), "Maximum 1 pre-order product(s) allowed.")

	extErr := fmt.Errorf("lookup: %w", NewExternalError("inventory item lookup", errors.New("timeout")))
	assert.True(t, errors.Is(extErr, ErrExternal))
	assert.False(t, errors.Is(extErr, ErrValidation))

	assert.True(t, errors.Is(NewValidationError("email", "Invalid email address"), ErrValidation))
}
