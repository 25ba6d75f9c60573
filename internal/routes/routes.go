package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/buildwise/buildwise_api/internal/auth"
	"github.com/buildwise/buildwise_api/internal/cart"
	"github.com/buildwise/buildwise_api/internal/clock"
	"github.com/buildwise/buildwise_api/internal/config"
	"github.com/buildwise/buildwise_api/internal/identity"
	"github.com/buildwise/buildwise_api/internal/listing"
	"github.com/buildwise/buildwise_api/internal/metrics"
	"github.com/buildwise/buildwise_api/internal/middleware"
	"github.com/buildwise/buildwise_api/internal/notification"
	"github.com/buildwise/buildwise_api/internal/payment"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Clock    clock.Clock
	// Gateway overrides the processor chosen from configuration.
	Gateway payment.Gateway
	// Identity overrides the identity store, e.g. to seed administrators.
	Identity identity.Repository
}

// Workers are long running jobs the caller runs alongside the HTTP server.
type Workers struct {
	Reconciler *payment.Reconciler
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (Workers, error) {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return Workers{}, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return Workers{}, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID(d.Logger))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	collector := metrics.NewCollector(d.Registry)
	app.Get("/metrics", metrics.Handler(d.Registry))

	var (
		identityRepo identity.Repository
		cartRepo     cart.Repository
		listingRepo  listing.Repository
		paymentRepo  payment.Repository
		cleanupQueue payment.CleanupQueue
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		cartRepo = cart.NewPostgresRepository(d.DB)
		listingRepo = listing.NewPostgresRepository(d.DB)
		paymentRepo = payment.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		cartRepo = cart.NewMemoryRepository()
		listingRepo = listing.NewMemoryRepository()
		paymentRepo = payment.NewMemoryRepository()
	}
	if d.Identity != nil {
		identityRepo = d.Identity
	}
	if d.Cache != nil {
		cleanupQueue = payment.NewRedisCleanupQueue(d.Cache)
	} else {
		cleanupQueue = payment.NewMemoryCleanupQueue()
	}

	gateway := d.Gateway
	if gateway == nil {
		if d.Cfg.StripeSecret != "" {
			gateway = payment.NewStripeGateway(d.Cfg.StripeSecret)
		} else {
			d.Logger.Warn("STRIPE_SECRET not set, charge intents are simulated")
			gateway = payment.StaticGateway{}
		}
	}

	tokens := auth.NewTokenService(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL, d.Clock)
	identitySvc := identity.NewService(identityRepo, d.Clock)
	cartSvc := cart.NewService(cartRepo, d.Clock)
	listingSvc := listing.NewService(listingRepo, d.Clock)
	coordinator, err := payment.NewCoordinator(payment.Deps{
		Payments: paymentRepo,
		Carts:    cartRepo,
		Gateway:  gateway,
		Cleanup:  cleanupQueue,
		Notifier: notification.NewLoggerNotifier(d.Logger),
		Metrics:  collector,
		Clock:    d.Clock,
		Logger:   d.Logger,
		Currency: d.Cfg.Currency,
	})
	if err != nil {
		return Workers{}, err
	}
	reconciler := payment.NewReconciler(coordinator, d.Cfg.ReconcileInterval)

	guard := middleware.NewGuard(tokens, identitySvc, collector, d.Logger)

	RegisterAuthRoutes(app, auth.NewHandler(tokens), middleware.TokenRateLimit(d.Cache, d.Cfg.TokenRateLimit))
	RegisterIdentityRoutes(app, guard, identity.NewHandler(identitySvc), identitySvc)
	RegisterCartRoutes(app, guard, cart.NewHandler(cartSvc))
	RegisterListingRoutes(app, guard, listing.NewHandler(listingSvc))
	RegisterPaymentRoutes(app, guard, payment.NewHandler(coordinator, reconciler),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	return Workers{Reconciler: reconciler}, nil
}
