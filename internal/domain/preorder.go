package domain

import "time"

// PreOrderSetting is the pre-order configuration of one variant.
// (ShopDomain, ProductID, VariantID) is the natural key.
type PreOrderSetting struct {
	ID            string     `json:"id"`
	ShopDomain    string     `json:"shopDomain"`
	ProductID     string     `json:"productId"`
	VariantID     string     `json:"variantId"`
	Enabled       bool       `json:"enabled"`
	ExpectedDate  *time.Time `json:"expectedDate"`
	LimitQuantity *int       `json:"limitQuantity"`
	CustomText    *string    `json:"customText"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ApplyMutable copies the fields a save is allowed to change
func (p *PreOrderSetting) ApplyMutable(from *PreOrderSetting) {
	p.Enabled = from.Enabled
	p.ExpectedDate = from.ExpectedDate
	p.LimitQuantity = from.LimitQuantity
	p.CustomText = from.CustomText
}
