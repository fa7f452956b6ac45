package api

import (
	"encoding/json"
	"net/http"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/ports"
	appmiddleware "shopify-preorder-layer/internal/infrastructure/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Metrics is what the router needs from the metrics registry
type Metrics interface {
	ports.Recorder
	ObserveRequest(method, route, status string, seconds float64)
	Handler() http.Handler
}

// RouterOptions configures the ambient parts of the router
type RouterOptions struct {
	AllowedOrigins []string
	SwaggerFile    string
	Metrics        Metrics
}

// NewRouter mounts every route of the app
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.SecurityHeadersMiddleware())
	r.Use(appmiddleware.MetricsMiddleware(opts.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", appmiddleware.IntegrationKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", opts.Metrics.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, opts.SwaggerFile)
	})

	r.Get("/auth/shopify", h.BeginInstall)
	r.Get("/auth/callback", h.CompleteInstall)
	r.Post("/webhooks/shopify", h.ReceiveWebhook)
	r.Get("/app/billing/callback", h.BillingCallback)

	// Storefront
	r.Get("/api/preorder/{shopDomain}", h.ListPreOrders)
	r.Get("/api/preorder/{shopDomain}/variants/{variantId}", h.GetPreOrderForVariant)
	r.Post("/api/waitlist/add", h.JoinWaitlist)

	// Admin routes authenticated by integration key
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.ShopAuth(h.installs, h.logger))

		anyPlan := appmiddleware.RequirePlanJSON(h.billing, opts.Metrics, h.logger, domain.AllPlans...)
		paidPlan := appmiddleware.RequirePlanJSON(h.billing, opts.Metrics, h.logger, domain.PlanBasic, domain.PlanPro)
		anyPlanPage := appmiddleware.RequirePlanRedirect(h.billing, opts.Metrics, h.logger, domain.AllPlans...)

		r.With(anyPlan).Post("/api/preorder/save", h.SavePreOrder)
		r.Delete("/api/preorder/{id}", h.DeletePreOrder)

		r.Get("/api/waitlist", h.ListWaitlist)
		r.Delete("/api/waitlist/{id}", h.DeleteWaitlistEntry)
		r.With(paidPlan).Post("/api/waitlist/notify", h.NotifyWaitlist)

		r.With(anyPlanPage).Get("/app/products", h.ProductsPage)
		r.With(anyPlanPage).Get("/app/backinstock", h.BackInStockPage)

		r.Get("/app/billing", h.GetBilling)
		r.Post("/app/billing", h.ChoosePlan)
	})

	return r
}
