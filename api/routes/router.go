package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/agencyops-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/agencyops-backend/api/controllers/admin"
	webhookcontrollers "github.com/angelmondragon/agencyops-backend/api/controllers/webhooks"
	"github.com/angelmondragon/agencyops-backend/api/middleware"
	"github.com/angelmondragon/agencyops-backend/internal/activity"
	"github.com/angelmondragon/agencyops-backend/internal/clients"
	"github.com/angelmondragon/agencyops-backend/internal/orders"
	"github.com/angelmondragon/agencyops-backend/internal/profiles"
	"github.com/angelmondragon/agencyops-backend/internal/projects"
	"github.com/angelmondragon/agencyops-backend/internal/subscriptions"
	stripewebhook "github.com/angelmondragon/agencyops-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/agencyops-backend/pkg/config"
	"github.com/angelmondragon/agencyops-backend/pkg/db"
	"github.com/angelmondragon/agencyops-backend/pkg/enums"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
	"github.com/angelmondragon/agencyops-backend/pkg/metrics"
	"github.com/angelmondragon/agencyops-backend/pkg/stripe"
)

// Dependencies carries everything the HTTP surface needs. Redis and the event
// guard are optional.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    db.Pinger
	Gatherer prometheus.Gatherer

	Profiles      profiles.Repository
	Clients       clients.Repository
	Orders        orders.Repository
	Projects      projects.Repository
	Subscriptions subscriptions.Repository
	Activity      activity.Repository

	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.EventGuard
	WebhookMetrics       *metrics.WebhookMetrics
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	checks := map[string]db.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	webhookParams := webhookcontrollers.StripeWebhookParams{
		Metrics:      deps.WebhookMetrics,
		Logger:       logg,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
	}
	// Typed nils must not leak into the handler's interfaces.
	if deps.StripeWebhookService != nil {
		webhookParams.Service = deps.StripeWebhookService
	}
	if deps.StripeWebhookGuard != nil {
		webhookParams.Guard = deps.StripeWebhookGuard
	}
	if deps.StripeClient != nil {
		webhookParams.Verifier = deps.StripeClient
	}
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(webhookParams))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
		r.Use(middleware.Auth(cfg.Supabase, deps.Profiles, logg))
		r.Use(middleware.RequireRole(logg, enums.ProfileRoleAdmin))

		r.Get("/subscriptions", admincontrollers.Subscriptions(deps.Subscriptions, logg))
		r.Route("/clients/{clientId}", func(r chi.Router) {
			r.Get("/", admincontrollers.ClientDetailHandler(deps.Clients, deps.Orders, deps.Projects, logg))
			r.Get("/activity", admincontrollers.ClientActivity(deps.Clients, deps.Activity, logg))
		})
	})

	return r
}
