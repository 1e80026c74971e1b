package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	catalogapp "github.com/dmehra2102/restaurant-pos/internal/catalog/application"
	catalogredis "github.com/dmehra2102/restaurant-pos/internal/catalog/infrastructure/redis"
	catalogrest "github.com/dmehra2102/restaurant-pos/internal/catalog/infrastructure/rest"
	"github.com/dmehra2102/restaurant-pos/internal/pos/application"
	"github.com/dmehra2102/restaurant-pos/internal/pos/domain"
	"github.com/dmehra2102/restaurant-pos/internal/pos/infrastructure/backend"
	poshttp "github.com/dmehra2102/restaurant-pos/internal/pos/infrastructure/http"
	"github.com/dmehra2102/restaurant-pos/internal/pos/infrastructure/metrics"
	"github.com/dmehra2102/restaurant-pos/pkg/config"
	"github.com/dmehra2102/restaurant-pos/pkg/logging"
	"github.com/dmehra2102/restaurant-pos/pkg/shutdown"
	"github.com/dmehra2102/restaurant-pos/pkg/tracing"
)

func main() {
	if err := config.Load(); err != nil {
		logging.New("pos-console", "info").Error("load .env failed", "err", err)
		os.Exit(1)
	}
	log := logging.New("pos-console", config.String("LOG_LEVEL", "info"))

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	httpAddr := config.String("HTTP_ADDR", ":8090")
	backendURL := config.String("BACKEND_URL", "http://localhost:8080")
	backendGRPC := config.String("BACKEND_GRPC_ADDR", "localhost:50051")
	backendTimeout := config.Duration("BACKEND_TIMEOUT", 10*time.Second)
	redisAddr := config.String("REDIS_ADDR", "localhost:6379")
	otelEndpoint := config.String("OTEL_ENDPOINT", "localhost:4317")

	policy := domain.MergeByItemVariation
	if config.Bool("POS_MERGE_BY_ADDONS", false) {
		policy = domain.MergeByAddons
	}
	sessionCfg := application.Config{
		Policy:           policy,
		TaxRate:          domain.TaxRate(config.Int("POS_TAX_BPS", int(domain.DefaultTaxRate))),
		RevalidatePrices: config.Bool("POS_REVALIDATE_PRICES", true),
		IdleTTL:          config.Duration("SESSION_IDLE_TTL", 8*time.Hour),
	}

	tp, err := tracing.Init(ctx, "pos-console", otelEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	hc := &http.Client{Timeout: backendTimeout}

	// Catalog, cached in Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()
	catalogSvc := catalogapp.NewService(log,
		catalogrest.NewClient(log, backendURL, hc),
		catalogredis.NewCache(rdb, "pos:"),
		config.Duration("CATALOG_CACHE_TTL", 5*time.Minute),
	)

	// Order service
	orders := backend.NewClient(log, backendURL, hc)
	health, err := backend.DialHealth(backendGRPC)
	if err != nil {
		log.Error("grpc dial failed", "err", err)
		os.Exit(1)
	}
	defer health.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector()
	reg.MustRegister(collector)

	sessions := application.NewSessionService(log, catalogSvc, orders, orders, collector, sessionCfg)
	handler := poshttp.NewHandler(log, sessions, catalogSvc, health.Check)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, collector.Middleware)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: backendTimeout + 5*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.RunJanitor(gctx, time.Minute)
	})
	g.Go(func() error {
		log.Info("http listening", "addr", httpAddr, "backend", backendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("pos-console stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("pos-console shutdown complete")
}
