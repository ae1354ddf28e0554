package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/hpwell/funnel-pricing/internal/catalog"
	"github.com/hpwell/funnel-pricing/internal/common"
	"github.com/hpwell/funnel-pricing/internal/config"
	"github.com/hpwell/funnel-pricing/internal/discount"
	"github.com/hpwell/funnel-pricing/internal/economics"
	"github.com/hpwell/funnel-pricing/internal/health"
	"github.com/hpwell/funnel-pricing/internal/kit"
	"github.com/hpwell/funnel-pricing/internal/obs"
	"github.com/hpwell/funnel-pricing/internal/offer"
	"github.com/hpwell/funnel-pricing/internal/ordersub"
	"github.com/hpwell/funnel-pricing/internal/points"
	"github.com/hpwell/funnel-pricing/internal/pricing"
	"github.com/hpwell/funnel-pricing/internal/ratelimit"
	"github.com/hpwell/funnel-pricing/internal/resilience"
	"github.com/hpwell/funnel-pricing/internal/security"
	"github.com/hpwell/funnel-pricing/internal/totals"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", obs.DefaultNamespace)
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse database config")
		}
		poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "funnel-pricing"

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("ping database")
		}
	} else {
		logger.Warn().Msg("no DATABASE_URL, offers and guidelines run on built-in defaults")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	} else {
		logger.Warn().Msg("no REDIS_URL, caching and rate limiting disabled")
	}

	var productLookup catalog.Lookup
	if cfg.CatalogBaseURL != "" {
		productLookup = catalog.CachedLookup{
			Inner: catalog.Client{
				BaseURL: cfg.CatalogBaseURL,
				APIKey:  cfg.CatalogAPIKey,
				HTTP: resilience.HTTPClient{
					Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("catalog"),
					BaseBackoff: 100 * time.Millisecond,
					MaxAttempts: 3,
					Jitter:      0.2,
					Timeout:     5 * time.Second,
				},
			},
			Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		}
	} else {
		logger.Warn().Msg("no CATALOG_BASE_URL, serving the built-in demo catalog")
		productLookup = catalog.NewStatic(demoProducts()...)
	}

	var engine ordersub.Engine
	if cfg.OrderEngineBaseURL != "" {
		engine = ordersub.Client{
			BaseURL: cfg.OrderEngineBaseURL,
			APIKey:  cfg.OrderEngineAPIKey,
			HTTP: resilience.HTTPClient{
				Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("order-engine"),
				BaseBackoff: 100 * time.Millisecond,
				MaxAttempts: 2,
				Jitter:      0.2,
				Timeout:     10 * time.Second,
			},
		}
	} else {
		logger.Info().Msg("no ORDER_ENGINE_BASE_URL, using the in-memory order engine")
		engine = ordersub.NewInMemory(cfg.TaxBps)
	}

	offerStore := &offer.Store{Pool: pool, Redis: redisClient, TTL: cfg.OfferCacheTTL}
	econStore := &economics.Store{Pool: pool, Redis: redisClient, TTL: cfg.OfferCacheTTL}

	svc := &pricing.Service{
		Resolver:  offer.Resolver{Catalog: productLookup},
		Offers:    offerStore,
		Composer:  discount.Composer{Ledger: points.FixedRate{PointsPerDollar: cfg.PointsPerDollar}},
		Computer:  totals.Computer{Engine: engine},
		Validator: economics.Validator{Catalog: productLookup, Source: econStore},
		Advisor:   kit.Advisor{Source: econStore},
	}
	pricingHandler := &pricing.Handler{Service: svc}
	offerAdmin := &offer.Handler{Store: offerStore}
	econAdmin := &economics.Handler{Store: econStore}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: ratelimit.DefaultPrefix},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/v1", func(v chi.Router) {
		v.Route("/pricing", func(p chi.Router) {
			p.Use(limiter.Middleware)
			pricingHandler.Routes(p)
		})
		v.Route("/admin", func(admin chi.Router) {
			admin.Route("/offers", offerAdmin.Routes)
			admin.Route("/guidelines", econAdmin.Routes)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// demoProducts backs local development without a catalog service.
func demoProducts() []catalog.Product {
	return []catalog.Product{
		{SKU: "SERUM-30", Name: "Renewal Serum 30ml", Price: 4000, RegularPrice: 4000, Cost: 1500, WeightOz: 3, StockStatus: catalog.InStock},
		{SKU: "CREAM-50", Name: "Barrier Cream 50ml", Price: 5400, RegularPrice: 6000, Cost: 2000, WeightOz: 4, StockStatus: catalog.InStock},
		{SKU: "MASK-5", Name: "Clay Mask 5-Pack", Price: 2500, RegularPrice: 2500, Cost: 900, WeightOz: 8, StockStatus: catalog.InStock},
	}
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

// PingDB reports ok when no database is configured; the service runs on
// defaults in that mode.
func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
