package domain

import (
	"fmt"
	"strings"
)

// Plan is a subscription tier controlling feature quotas
type Plan string

const (
	PlanFree  Plan = "FREE"
	PlanBasic Plan = "BASIC"
	PlanPro   Plan = "PRO"
)

// AllPlans lists every plan in ascending order
var AllPlans = []Plan{PlanFree, PlanBasic, PlanPro}

// ParsePlan converts user input into a Plan
func ParsePlan(s string) (Plan, error) {
	switch Plan(strings.ToUpper(strings.TrimSpace(s))) {
	case PlanFree:
		return PlanFree, nil
	case PlanBasic:
		return PlanBasic, nil
	case PlanPro:
		return PlanPro, nil
	}
	return "", NewValidationError("plan", fmt.Sprintf("invalid plan %q", s))
}

// Unlimited marks a limit with no upper bound
const Unlimited Limit = -1

// Limit is a quota. Negative values mean unbounded.
type Limit int

// Unbounded reports whether the limit has no upper bound
func (l Limit) Unbounded() bool {
	return l < 0
}

// Allows reports whether holding count items stays within the limit
func (l Limit) Allows(count int64) bool {
	return l.Unbounded() || count <= int64(l)
}

// String renders the limit the way the admin UI shows it
func (l Limit) String() string {
	if l.Unbounded() {
		return "Unlimited"
	}
	return fmt.Sprintf("%d", int(l))
}

// MarshalJSON encodes unbounded limits as null
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.Unbounded() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%d", int(l))), nil
}

// PlanLimits holds the quotas attached to a plan
type PlanLimits struct {
	MaxPreOrders      Limit `json:"maxPreOrders"`
	MaxWaitlistEmails Limit `json:"maxWaitlistEmails"`
}

// LimitsFor returns the quotas of a plan. Unknown plans panic so that a new
// plan cannot ship without limits.
func LimitsFor(plan Plan) PlanLimits {
	switch plan {
	case PlanFree:
		return PlanLimits{MaxPreOrders: 1, MaxWaitlistEmails: 20}
	case PlanBasic:
		return PlanLimits{MaxPreOrders: Unlimited, MaxWaitlistEmails: 500}
	case PlanPro:
		return PlanLimits{MaxPreOrders: Unlimited, MaxWaitlistEmails: Unlimited}
	default:
		panic(fmt.Sprintf("domain: no limits defined for plan %q", plan))
	}
}

// PlanOffer describes how a paid plan is sold through Shopify billing
type PlanOffer struct {
	Name  string
	Price string // USD per 30 days
}

// OfferFor returns the billing offer for a paid plan. FREE has no offer.
func OfferFor(plan Plan) (PlanOffer, bool) {
	switch plan {
	case PlanBasic:
		return PlanOffer{Name: "Basic Plan", Price: "9.99"}, true
	case PlanPro:
		return PlanOffer{Name: "Pro Plan", Price: "29.99"}, true
	default:
		return PlanOffer{}, false
	}
}
