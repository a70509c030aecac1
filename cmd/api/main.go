package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/checkout"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/health"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/rates"
	"github.com/noah-isme/backend-kasir/internal/resilience"
	"github.com/noah-isme/backend-kasir/internal/sales"
)

const (
	metricsNamespace = "kasir"
	serviceVersion   = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)
	log.Info().Str("env", cfg.AppEnv).Str("addr", cfg.HTTPAddr()).Msg("starting register service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	resilience.MustRegisterMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), prometheus.DefaultRegisterer)

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "backend-kasir",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("init tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("tracer shutdown")
			}
		}()
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(opts)
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			log.Warn().Err(err).Msg("redis tracing instrumentation")
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup, continuing without it")
		}
		defer func() { _ = redisClient.Close() }()
	}

	httpTransport := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	upstream := func(target string) resilience.HTTPClient {
		return resilience.HTTPClient{
			Client:      httpTransport,
			Breaker:     resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget(target).WithLogger(log),
			BaseBackoff: 100 * time.Millisecond,
			MaxAttempts: 3,
			Jitter:      0.2,
			Timeout:     cfg.UpstreamTimeout,
		}
	}

	catalogClient := &catalog.HTTPClient{BaseURL: cfg.CatalogBaseURL, HTTP: upstream("catalog")}
	customerClient := &customer.HTTPClient{BaseURL: cfg.CustomerBaseURL, HTTP: upstream("customer")}
	settingsClient := &rates.HTTPClient{BaseURL: cfg.SettingsBaseURL, HTTP: upstream("settings")}

	// Sale submission is not idempotent; one attempt only, with a longer
	// timeout than the read paths.
	salesClient := &sales.HTTPClient{
		BaseURL: cfg.SalesBaseURL,
		HTTP: resilience.HTTPClient{
			Client:      httpTransport,
			Breaker:     resilience.NewBreaker(5, 0.6, 30*time.Second).WithTarget("sales").WithLogger(log),
			MaxAttempts: 1,
			Timeout:     cfg.SubmitTimeout,
		},
	}

	rateProvider := &rates.CachedProvider{
		Source: settingsClient,
		Redis:  redisClient,
		TTL:    cfg.RateCacheTTL,
		Log:    log,
	}

	sessions := cart.NewStore()
	var savedStore cart.SavedStore
	if redisClient != nil {
		savedStore = &cart.RedisSavedStore{Redis: redisClient, TTL: cfg.SavedCartTTL}
	} else {
		log.Warn().Msg("redis not configured, parked carts will not survive restarts")
		savedStore = cart.NewMemorySavedStore()
	}

	checkoutService := &checkout.Service{
		Sales:       salesClient,
		Rates:       rateProvider,
		WarehouseID: cfg.WarehouseID,
		Log:         log,
	}

	catalogHandler := &catalog.Handler{Products: catalogClient, Log: log}
	customerHandler := &customer.Handler{Customers: customerClient, Log: log}
	ratesHandler := &rates.Handler{Rates: rateProvider, Log: log}
	cartHandler := &cart.Handler{
		Sessions:  sessions,
		Saved:     savedStore,
		Products:  catalogClient,
		Customers: customerClient,
		Rates:     rateProvider,
		Log:       log,
	}
	checkoutHandler := &checkout.Handler{Sessions: sessions, Service: checkoutService, Log: log}
	healthHandler := &health.Handler{Redis: redisClient, Version: serviceVersion}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Terminal-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.RequestLogger{Logger: log}.Middleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", catalogHandler.List)
		r.Get("/products/barcode/{code}", catalogHandler.Barcode)
		r.Get("/customers", customerHandler.List)
		r.Get("/exchange-rate", ratesHandler.Get)

		r.Get("/saved-carts", cartHandler.ListSaved)
		r.Delete("/saved-carts/{savedID}", cartHandler.DeleteSaved)

		r.Post("/sessions", cartHandler.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Delete("/", cartHandler.CloseSession)

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Patch("/cart/items/{lineID}", cartHandler.UpdateItem)
			r.Delete("/cart/items/{lineID}", cartHandler.RemoveItem)
			r.Post("/cart/discount", cartHandler.SetDiscount)
			r.Put("/cart/customer", cartHandler.SetCustomer)
			r.Delete("/cart/customer", cartHandler.DetachCustomer)
			r.Post("/cart/park", cartHandler.Park)
			r.Post("/cart/resume/{savedID}", cartHandler.Resume)

			r.Post("/edit", cartHandler.EnterEdit)
			r.Delete("/edit", cartHandler.CancelEdit)

			r.Post("/checkout", checkoutHandler.Settle)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("stopped")
}
