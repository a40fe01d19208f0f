package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"fleetaudit/internal/audit/export"
	"fleetaudit/internal/audit/export/artifact"
	"fleetaudit/internal/audit/handler"
	auditmetrics "fleetaudit/internal/audit/metrics"
	"fleetaudit/internal/audit/policy"
	"fleetaudit/internal/audit/reason"
	"fleetaudit/internal/audit/service"
	"fleetaudit/internal/audit/sink"
	"fleetaudit/internal/audit/store/ledger"
	"fleetaudit/internal/platform/config"
	"fleetaudit/internal/platform/httpserver"
	"fleetaudit/internal/platform/kafka"
	"fleetaudit/internal/platform/logger"
	"fleetaudit/internal/platform/middleware"
	platformredis "fleetaudit/internal/platform/redis"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal audit packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	guard := policy.NewGuard()
	metrics := auditmetrics.New()

	// Durable ledger when a DSN is configured, in-memory otherwise.
	var store ledger.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to reach postgres", "error", err)
			os.Exit(1)
		}
		store = ledger.NewPostgres(db, guard)
		log.Info("using postgres ledger store")
	} else {
		store = ledger.NewMemory(guard)
		log.Info("using in-memory ledger store")
	}

	catalog, err := reason.Load(cfg.ReasonCatalogPath)
	if err != nil {
		log.Error("failed to load reason catalog", "path", cfg.ReasonCatalogPath, "error", err)
		os.Exit(1)
	}

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics),
	}

	// Optional broker fan-out of committed events.
	var eventSink *sink.Sink
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Error("failed to build kafka producer", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
		eventSink = sink.New(producer, log)
		serviceOpts = append(serviceOpts, service.WithSink(eventSink))
		log.Info("event fan-out enabled", "topic", cfg.KafkaTopic)
	}

	svc, err := service.New(store, serviceOpts...)
	if err != nil {
		log.Error("failed to build audit service", "error", err)
		os.Exit(1)
	}

	// Export artifacts live in Redis when configured, otherwise in process
	// memory with the same TTL.
	var artifacts artifact.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		artifacts = artifact.NewRedis(redisClient.Client, cfg.ExportTTL)
		log.Info("using redis artifact store", "ttl", cfg.ExportTTL)
	} else {
		artifacts = artifact.NewMemory(cfg.ExportTTL)
	}

	exporter, err := export.New(svc, artifacts, export.WithLogger(log), export.WithMetrics(metrics))
	if err != nil {
		log.Error("failed to build exporter", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestMetadata)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, exporter, catalog, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting fleetaudit server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if eventSink != nil {
		g.Go(func() error {
			if err := eventSink.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
