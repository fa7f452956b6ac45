package domain

import "time"

// SubscriptionStatus is the lifecycle state of a subscription
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is the plan a shop is on. There is at most one per shop.
type Subscription struct {
	ShopDomain string             `json:"shopDomain"`
	Plan       Plan               `json:"plan"`
	Status     SubscriptionStatus `json:"status"`
	CreatedAt  time.Time          `json:"createdAt,omitempty"`
	UpdatedAt  time.Time          `json:"updatedAt,omitempty"`
}

// DefaultSubscription is what a shop without a stored subscription is on
func DefaultSubscription(shopDomain string) *Subscription {
	return &Subscription{
		ShopDomain: shopDomain,
		Plan:       PlanFree,
		Status:     StatusActive,
	}
}

// IsActiveOn reports whether the subscription is active on one of the plans
func (s *Subscription) IsActiveOn(plans ...Plan) bool {
	if s == nil || s.Status != StatusActive {
		return false
	}
	for _, p := range plans {
		if s.Plan == p {
			return true
		}
	}
	return false
}
