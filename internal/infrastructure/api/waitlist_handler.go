package api

import (
	"net/http"

	"shopify-preorder-layer/internal/application"
	"shopify-preorder-layer/internal/domain"

	"github.com/go-chi/chi/v5"
)

// JoinWaitlist handles POST /api/waitlist/add
func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var input application.JoinWaitlistInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	entry, created, err := h.waitlist.Join(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{"success": true, "entry": entry})
}

// ListWaitlist handles GET /api/waitlist
func (h *Handler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.waitlist.List(r.Context(), domain.GetShopDomainFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []*domain.WaitlistEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// DeleteWaitlistEntry handles DELETE /api/waitlist/{id}
func (h *Handler) DeleteWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	shop := domain.GetShopDomainFromContext(r.Context())
	if err := h.waitlist.Delete(r.Context(), shop, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type notifyRequest struct {
	VariantID    string `json:"variantId"`
	ProductTitle string `json:"productTitle"`
}

// NotifyWaitlist handles POST /api/waitlist/notify
func (h *Handler) NotifyWaitlist(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	shop := domain.GetShopDomainFromContext(r.Context())
	notified, err := h.waitlist.NotifyVariant(r.Context(), shop, req.VariantID, req.ProductTitle)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "notified": notified})
}

// BackInStockPage handles GET /app/backinstock
func (h *Handler) BackInStockPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.waitlist.PageData(r.Context(), domain.GetShopDomainFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
