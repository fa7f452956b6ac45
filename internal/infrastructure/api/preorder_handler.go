package api

import (
	"net/http"

	"shopify-preorder-layer/internal/application"
	"shopify-preorder-layer/internal/domain"

	"github.com/go-chi/chi/v5"
)

// ListPreOrders handles GET /api/preorder/{shopDomain}
func (h *Handler) ListPreOrders(w http.ResponseWriter, r *http.Request) {
	shop := chi.URLParam(r, "shopDomain")
	if !application.ValidShopDomain(shop) {
		writeError(w, h.logger, domain.NewValidationError("shopDomain", "shopDomain must be a valid myshopify.com domain"))
		return
	}

	settings, err := h.preorders.List(r.Context(), shop)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if settings == nil {
		settings = []*domain.PreOrderSetting{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"preOrders": settings})
}

// GetPreOrderForVariant handles GET /api/preorder/{shopDomain}/variants/{variantId}
func (h *Handler) GetPreOrderForVariant(w http.ResponseWriter, r *http.Request) {
	shop := chi.URLParam(r, "shopDomain")
	if !application.ValidShopDomain(shop) {
		writeError(w, h.logger, domain.NewValidationError("shopDomain", "shopDomain must be a valid myshopify.com domain"))
		return
	}

	setting, err := h.preorders.GetForVariant(r.Context(), shop, chi.URLParam(r, "variantId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if setting == nil {
		writeError(w, h.logger, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"preOrder": setting})
}

// SavePreOrder handles POST /api/preorder/save
func (h *Handler) SavePreOrder(w http.ResponseWriter, r *http.Request) {
	var input application.SavePreOrderInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	shop := domain.GetShopDomainFromContext(r.Context())
	setting, err := h.preorders.Save(r.Context(), shop, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "preOrder": setting})
}

// DeletePreOrder handles DELETE /api/preorder/{id}
func (h *Handler) DeletePreOrder(w http.ResponseWriter, r *http.Request) {
	shop := domain.GetShopDomainFromContext(r.Context())
	if err := h.preorders.Delete(r.Context(), shop, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ProductsPage handles GET /app/products
func (h *Handler) ProductsPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.preorders.PageData(r.Context(), domain.GetShopDomainFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
