package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kifaa-platform/kifaa/internal/auth"
	"github.com/kifaa-platform/kifaa/internal/config"
	"github.com/kifaa-platform/kifaa/internal/funding"
	"github.com/kifaa-platform/kifaa/internal/identity"
	"github.com/kifaa-platform/kifaa/internal/kyc"
	"github.com/kifaa-platform/kifaa/internal/ledger"
	"github.com/kifaa-platform/kifaa/internal/loan"
	"github.com/kifaa-platform/kifaa/internal/middleware"
	"github.com/kifaa-platform/kifaa/internal/notification"
	"github.com/kifaa-platform/kifaa/internal/product"
	"github.com/kifaa-platform/kifaa/internal/scoring"
	"github.com/kifaa-platform/kifaa/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Metrics())
	app.Use(middleware.Audit(d.Logger))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	RegisterHealthRoutes(app, d)

	// Storage backends. Dev without Postgres runs fully in memory.
	var (
		ledgerBackend ledger.Ledger
		identityRepo  identity.Repository
		loanRepo      loan.Repository
		productRepo   product.Repository
		kycRepo       kyc.Repository
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		loanRepo = loan.NewPostgresRepository(d.DB)
		productRepo = product.NewPostgresRepository(d.DB)
		kycRepo = kyc.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
		loanRepo = loan.NewMemoryRepository()
		productRepo = product.NewMemoryRepository()
		kycRepo = kyc.NewMemoryRepository()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	scoringSvc := scoring.NewService(identityRepo, loanRepo, ledgerBackend, kycRepo, d.Cache, d.Cfg.ScoreCacheTTL, d.Logger)
	walletSvc := wallet.NewService(ledgerBackend, notifier, scoringSvc, d.Cfg.DefaultCurrency)
	productSvc := product.NewService(productRepo)
	loanSvc := loan.NewService(loanRepo, productRepo, ledgerBackend, notifier, scoringSvc, d.Cfg.DefaultCurrency)
	kycSvc := kyc.NewService(kycRepo, identityRepo, scoringSvc)
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	fundingSvc, err := funding.NewService(walletSvc, nil)
	if err != nil {
		return err
	}

	authHandler := auth.NewHandler(identitySvc, authSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	fundingHandler := funding.NewHandler(fundingSvc)
	loanHandler := loan.NewHandler(loanSvc)
	productHandler := product.NewHandler(productSvc, scoringSvc)
	kycHandler := kyc.NewHandler(kycSvc)
	scoringHandler := scoring.NewHandler(scoringSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identitySvc, d.Logger)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes. Idempotency runs after auth so replay keys are scoped
	// to the authenticated user.
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterLogoutRoute(protected, authHandler)
	RegisterProfileRoute(protected, identityRepo, walletSvc)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterFundingRoutes(protected, fundingHandler)
	RegisterLoanRoutes(protected, loanHandler)
	RegisterProductRoutes(protected, productHandler)
	RegisterKYCRoutes(protected, kycHandler)
	RegisterScoringRoutes(protected, scoringHandler)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireRole(identity.RoleAdministrator))
	RegisterAdminRoutes(admin, loanHandler, productHandler, kycHandler)

	return nil
}
