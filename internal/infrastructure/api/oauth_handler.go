package api

import (
	"net/http"
	"net/url"
	"strings"
)

// BeginInstall redirects the merchant to the Shopify consent screen
func (h *Handler) BeginInstall(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		http.Error(w, "shop parameter is required", http.StatusBadRequest)
		return
	}

	returnURL := r.URL.Query().Get("return_url")
	if returnURL == "" {
		returnURL = h.appURL + "/app"
	}

	authURL, err := h.installs.BeginInstall(r.Context(), shop, returnURL)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CompleteInstall handles the OAuth callback and hands the integration key
// to the return URL
func (h *Handler) CompleteInstall(w http.ResponseWriter, r *http.Request) {
	result, err := h.installs.CompleteInstall(r.Context(), r.URL)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	returnURL := result.ReturnURL
	if returnURL == "" {
		returnURL = h.appURL + "/app"
	}
	sep := "?"
	if strings.Contains(returnURL, "?") {
		sep = "&"
	}
	redirectURL := returnURL + sep + url.Values{
		"shopify_oauth":   {"success"},
		"shop":            {result.Shop.Domain},
		"integration_key": {result.IntegrationKey},
	}.Encode()

	h.logger.Info().
		Str("shop", result.Shop.Domain).
		Str("returnURL", returnURL).
		Msg("Redirecting to frontend after successful OAuth")

	http.Redirect(w, r, redirectURL, http.StatusFound)
}
