package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/invoiceflow/invoiceflow/modules/admins"
	"github.com/invoiceflow/invoiceflow/modules/billing"
	"github.com/invoiceflow/invoiceflow/modules/health"
	"github.com/invoiceflow/invoiceflow/modules/invoices"
	"github.com/invoiceflow/invoiceflow/modules/settings"
	"github.com/invoiceflow/invoiceflow/modules/tenants"
	"github.com/invoiceflow/invoiceflow/modules/users"
	"github.com/invoiceflow/invoiceflow/pkg/config"
	"github.com/invoiceflow/invoiceflow/pkg/httpserver"
	"github.com/invoiceflow/invoiceflow/pkg/logger"
	"github.com/invoiceflow/invoiceflow/pkg/mongo"
	"github.com/invoiceflow/invoiceflow/pkg/pg"
	"github.com/invoiceflow/invoiceflow/pkg/redis"
	"github.com/invoiceflow/invoiceflow/pkg/tenant"
	adminsvc "github.com/invoiceflow/invoiceflow/svc/admin"
	billingsvc "github.com/invoiceflow/invoiceflow/svc/billing"
	"github.com/invoiceflow/invoiceflow/svc/directory"
	invoicesvc "github.com/invoiceflow/invoiceflow/svc/invoice"
	"github.com/invoiceflow/invoiceflow/svc/provisioner"
	settingssvc "github.com/invoiceflow/invoiceflow/svc/settings"
	usersvc "github.com/invoiceflow/invoiceflow/svc/user"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// BaseDomain enables subdomain tenant resolution; empty disables it.
	BaseDomain       string        `env:"TENANT_BASE_DOMAIN" envDefault:""`
	TenantHeaderName string        `env:"TENANT_HEADER_NAME" envDefault:"X-Tenant-ID"`
	TenantCacheTTL   time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`

	HTTP  httpserver.Config
	PG    pg.Config
	Redis redis.Config
	Mongo mongo.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, "invoiceflow"),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	checks := map[string]health.Check{
		"postgres": pg.Healthcheck(pool),
	}

	var cache tenant.Cache
	if cfg.Redis.Enabled() {
		redisClient, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cache = tenant.NewRedisCache(redisClient)
		checks["redis"] = redis.Healthcheck(redisClient)
	} else {
		cache = tenant.NewInMemoryCache()
	}
	defer cache.Close()

	if cfg.Mongo.Enabled() {
		mongoClient, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() {
			_ = mongoClient.Disconnect(context.Background())
		}()
		checks["mongodb-archive"] = mongo.Healthcheck(mongoClient)
	}

	dir := directory.New(pool, log)
	prov := provisioner.New(pool, log)

	tenantOpts := []tenant.Option{
		tenant.WithHeaderName(cfg.TenantHeaderName),
		tenant.WithCache(cache),
		tenant.WithCacheTTL(cfg.TenantCacheTTL),
		tenant.WithBypassPaths("/api/auth", "/api/public", "/health", "/api/tenants", "/api/admin", "/api/system"),
		tenant.WithLogger(log),
	}
	if cfg.BaseDomain != "" {
		tenantOpts = append(tenantOpts, tenant.WithBaseDomain(cfg.BaseDomain))
	}

	r := routes(log, dir.Resolver(), tenantOpts, handlers{
		health:         health.Router(checks),
		tenants:        tenants.Router(prov, dir, log),
		systemSettings: settings.SystemRouter(settingssvc.NewSystemSettings(pool), log),
		adminAccounts:  admins.Router(adminsvc.NewService(pool), log),
		adminBilling:   billing.Router(billingsvc.NewService(pool), log),
		invoices:       invoices.Router(invoicesvc.NewService(pool, log), log),
		users:          users.Router(usersvc.NewService(pool, log), log),
		settings:       settings.Router(settingssvc.NewTenantSettings(pool, log), log),
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}

// handlers holds the mounted module routers so route assembly stays
// independent of how each module is constructed.
type handlers struct {
	health         http.Handler
	tenants        http.Handler
	systemSettings http.Handler
	adminAccounts  http.Handler
	adminBilling   http.Handler
	invoices       http.Handler
	users          http.Handler
	settings       http.Handler
}

// routes assembles the HTTP surface. Tenant resolution is installed ahead
// of routing so the path strategy's segment rewrite happens before the mux
// matches a pattern: /api/acme/invoices must become /api/invoices before
// chi looks for a route. The bypass prefixes keep the global surfaces
// (health, tenant administration, system settings) out of resolution.
func routes(log *slog.Logger, provider tenant.Provider, tenantOpts []tenant.Option, h handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(tenant.Middleware(provider, tenantOpts...))

	r.Mount("/health", h.health)
	r.Mount("/api/tenants", h.tenants)
	r.Mount("/api/system/settings", h.systemSettings)
	r.Route("/api/admin", func(adm chi.Router) {
		adm.Mount("/accounts", h.adminAccounts)
		adm.Mount("/billing", h.adminBilling)
	})
	r.Mount("/api/invoices", h.invoices)
	r.Mount("/api/users", h.users)
	r.Mount("/api/settings", h.settings)
	return r
}

// requestLogger emits one structured record per request; the logger's
// context extractors add the tenant id once resolution has run.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
