package api

import (
	"errors"
	"net/http"

	"shopify-preorder-layer/internal/application"
	"shopify-preorder-layer/internal/domain"
)

// GetBilling returns the current plan and its limits
func (h *Handler) GetBilling(w http.ResponseWriter, r *http.Request) {
	overview, err := h.billing.Overview(r.Context(), domain.GetShopDomainFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

type choosePlanRequest struct {
	Plan string `json:"plan"`
}

// ChoosePlan switches to FREE or answers with the charge confirmation URL
// of a paid plan
func (h *Handler) ChoosePlan(w http.ResponseWriter, r *http.Request) {
	var req choosePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	plan, err := domain.ParsePlan(req.Plan)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	choice, err := h.billing.ChoosePlan(r.Context(), domain.GetShopDomainFromContext(r.Context()), plan)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if choice.ConfirmationURL != "" {
		writeJSON(w, http.StatusOK, map[string]string{"confirmationUrl": choice.ConfirmationURL})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "subscription": choice.Subscription})
}

// BillingCallback is where Shopify sends the merchant after a charge
// decision. The plan is only recorded when Shopify reports the charge active.
func (h *Handler) BillingCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shop := q.Get("shop")
	if !application.ValidShopDomain(shop) {
		writeError(w, h.logger, domain.NewValidationError("shop", "shop must be a valid myshopify.com domain"))
		return
	}
	plan, err := domain.ParsePlan(q.Get("plan"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.billing.ConfirmPlan(r.Context(), shop, plan, q.Get("charge_id")); err != nil {
		if errors.Is(err, application.ErrChargeNotActive) {
			http.Redirect(w, r, "/app/billing?error=activation_failed", http.StatusFound)
			return
		}
		writeError(w, h.logger, err)
		return
	}

	http.Redirect(w, r, "/app/billing?success=true", http.StatusFound)
}
