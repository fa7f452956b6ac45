package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopify-preorder-layer/internal/domain"

	"github.com/rs/zerolog"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a service error to its HTTP status. Messages of external
// and unexpected failures are not exposed.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var validation *domain.ValidationError
	var limit *domain.LimitExceededError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Message})
	case errors.As(err, &limit):
		writeJSON(w, http.StatusForbidden, errorBody{Error: limit.Error(), Code: "limit_exceeded"})
	case errors.Is(err, domain.ErrUpgradeRequired):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "Upgrade required", Code: "upgrade_required"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthenticated"})
	case errors.Is(err, domain.ErrBusy):
		writeJSON(w, http.StatusConflict, errorBody{Error: "Another request for this shop is in progress, try again"})
	case errors.Is(err, domain.ErrExternal):
		logger.Error().Err(err).Msg("Upstream service failure")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Upstream service failure"})
	default:
		logger.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("", "Invalid JSON body")
	}
	return nil
}
