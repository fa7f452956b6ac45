package middleware

import (
	"context"
	"net/http"

	"shopify-preorder-layer/internal/domain"

	"github.com/rs/zerolog"
)

// UpgradeRedirectURL is where page requests go when the plan is insufficient
const UpgradeRedirectURL = "/app/billing?upgrade_required=true"

// Gate response variants, also used as metric labels
const (
	GateJSON     = "json"
	GateRedirect = "redirect"
)

// PlanChecker answers whether a shop is active on one of the given plans
type PlanChecker interface {
	IsPlanActive(ctx context.Context, shopDomain string, plans ...domain.Plan) (bool, error)
}

// DenialRecorder counts refused requests
type DenialRecorder interface {
	PlanGateDenied(variant string)
}

// RequirePlanJSON refuses requests from shops outside plans with a 403 JSON body
func RequirePlanJSON(checker PlanChecker, recorder DenialRecorder, logger zerolog.Logger, plans ...domain.Plan) func(http.Handler) http.Handler {
	return requirePlan(checker, recorder, logger, GateJSON, plans)
}

// RequirePlanRedirect sends page requests from shops outside plans to billing
func RequirePlanRedirect(checker PlanChecker, recorder DenialRecorder, logger zerolog.Logger, plans ...domain.Plan) func(http.Handler) http.Handler {
	return requirePlan(checker, recorder, logger, GateRedirect, plans)
}

func requirePlan(checker PlanChecker, recorder DenialRecorder, logger zerolog.Logger, variant string, plans []domain.Plan) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shop := domain.GetShopDomainFromContext(r.Context())
			if shop == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthenticated"})
				return
			}

			ok, err := checker.IsPlanActive(r.Context(), shop, plans...)
			if err != nil {
				logger.Error().Err(err).Str("shop", shop).Msg("Plan check failed")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
				return
			}
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			recorder.PlanGateDenied(variant)
			logger.Info().
				Str("shop", shop).
				Str("path", r.URL.Path).
				Str("variant", variant).
				Msg("Plan upgrade required")

			if variant == GateRedirect {
				http.Redirect(w, r, UpgradeRedirectURL, http.StatusFound)
				return
			}
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Upgrade required. This feature is not available on your current plan.",
				"code":  "upgrade_required",
			})
		})
	}
}
