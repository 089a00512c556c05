package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/agencyops-backend/api/routes"
	"github.com/angelmondragon/agencyops-backend/internal/activity"
	"github.com/angelmondragon/agencyops-backend/internal/catalog"
	"github.com/angelmondragon/agencyops-backend/internal/clients"
	"github.com/angelmondragon/agencyops-backend/internal/notifications"
	"github.com/angelmondragon/agencyops-backend/internal/orders"
	"github.com/angelmondragon/agencyops-backend/internal/profiles"
	"github.com/angelmondragon/agencyops-backend/internal/projects"
	"github.com/angelmondragon/agencyops-backend/internal/subscriptions"
	stripewebhook "github.com/angelmondragon/agencyops-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/agencyops-backend/pkg/config"
	"github.com/angelmondragon/agencyops-backend/pkg/db"
	"github.com/angelmondragon/agencyops-backend/pkg/logger"
	"github.com/angelmondragon/agencyops-backend/pkg/mailer"
	"github.com/angelmondragon/agencyops-backend/pkg/metrics"
	"github.com/angelmondragon/agencyops-backend/pkg/migrate"
	"github.com/angelmondragon/agencyops-backend/pkg/redis"
	"github.com/angelmondragon/agencyops-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis only backs the event guard; the database keys keep replays safe
	// without it.
	var (
		redisClient *redis.Client
		guard       *stripewebhook.EventGuard
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		guard, err = stripewebhook.NewEventGuard(redisClient, cfg.Webhook.InFlightTTL, cfg.Webhook.IdempotencyTTL)
		if err != nil {
			logg.Error(ctx, "failed to create stripe event guard", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "redis not configured, stripe event guard disabled")
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, cfg.App.IsProd(), logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe client", err)
		os.Exit(1)
	}
	if !stripeClient.Verifies() {
		logg.Warn(ctx, "stripe webhook signing secret missing, webhook payloads will NOT be verified")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	webhookMetrics := metrics.NewWebhookMetrics(reg)

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	clientsRepo := clients.NewRepository(conn)
	profilesRepo := profiles.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	projectsRepo := projects.NewRepository(conn)
	subscriptionsRepo := subscriptions.NewRepository(conn)
	activityRepo := activity.NewRepository(conn)

	notifier := notifications.NewNotifier(mailer.New(cfg.Resend), cfg.Resend.AdminEmail, cfg.Resend.PortalURL)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Catalog:           catalogRepo,
		Clients:           clientsRepo,
		Profiles:          profilesRepo,
		Orders:            ordersRepo,
		Projects:          projectsRepo,
		Subscriptions:     subscriptionsRepo,
		Activity:          activityRepo,
		TransactionRunner: dbClient,
		Notifier:          notifier,
		Customers:         stripeClient,
		Metrics:           webhookMetrics,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		Config:               cfg,
		Logger:               logg,
		DB:                   dbClient,
		Gatherer:             reg,
		Profiles:             profilesRepo,
		Clients:              clientsRepo,
		Orders:               ordersRepo,
		Projects:             projectsRepo,
		Subscriptions:        subscriptionsRepo,
		Activity:             activityRepo,
		StripeClient:         stripeClient,
		StripeWebhookService: webhookService,
		StripeWebhookGuard:   guard,
		WebhookMetrics:       webhookMetrics,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
