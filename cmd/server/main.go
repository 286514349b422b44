package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cnpjd/internal/audit"
	"cnpjd/internal/company/cache"
	companyhandler "cnpjd/internal/company/handler"
	companymetrics "cnpjd/internal/company/metrics"
	companyservice "cnpjd/internal/company/service"
	companystore "cnpjd/internal/company/store"
	"cnpjd/internal/platform/config"
	"cnpjd/internal/platform/httpserver"
	"cnpjd/internal/platform/kafka"
	"cnpjd/internal/platform/logger"
	"cnpjd/internal/platform/metrics"
	"cnpjd/internal/platform/postgres"
	"cnpjd/internal/platform/redis"
	httptransport "cnpjd/internal/transport/http"
	validationhandler "cnpjd/internal/validation/handler"
	validationmetrics "cnpjd/internal/validation/metrics"
	"cnpjd/pkg/platform/circuit"
)

// auditBufferSize bounds audit events queued for the sink.
const auditBufferSize = 1024

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checks := map[string]httptransport.HealthCheck{}

	store, closeStore, err := buildStore(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	auditStore, closeSink, err := buildAuditSink(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeSink()
	publisher := audit.NewPublisher(auditStore, audit.WithAsyncBuffer(auditBufferSize), audit.WithLogger(log))
	// Runs before closeSink so queued events reach the sink.
	defer publisher.Close()

	svcOpts := []companyservice.Option{
		companyservice.WithAuditPublisher(publisher),
		companyservice.WithMetrics(companymetrics.New(reg)),
		companyservice.WithLogger(log),
	}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
		svcOpts = append(svcOpts, companyservice.WithCache(cache.New(redisClient.Client, cfg.CompanyCacheTTL,
			cache.WithBreaker(circuit.New("company-cache")),
			cache.WithLogger(log),
		)))
		log.Info("company cache enabled", "ttl", cfg.CompanyCacheTTL)
	}

	companies, err := companyservice.New(store, svcOpts...)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Checks:   checks,
		Handlers: []httptransport.Registrar{
			validationhandler.New(log, validationmetrics.New(reg)),
			companyhandler.New(companies, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting cnpjd", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg config.Server, log *slog.Logger, checks map[string]httptransport.HealthCheck) (companyservice.Store, func(), error) {
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		log.Warn("DATABASE_URL not set, using in-memory company store")
		return companystore.NewInMemory(), func() {}, nil
	}
	pg := companystore.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	checks["postgres"] = db.PingContext
	return pg, func() { _ = db.Close() }, nil
}

func buildAuditSink(ctx context.Context, cfg config.Server, log *slog.Logger, checks map[string]httptransport.HealthCheck) (audit.Store, func(), error) {
	if !cfg.Kafka.Enabled() {
		log.Warn("KAFKA_BROKERS not set, writing audit events to the log")
		return audit.NewLogStore(log), func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, err
	}
	if err := producer.EnsureTopic(ctx, cfg.Kafka.AuditTopic, 3, 1); err != nil {
		producer.Close()
		return nil, nil, err
	}
	checks["kafka"] = producer.Ping
	return audit.NewKafkaStore(producer, cfg.Kafka.AuditTopic), producer.Close, nil
}
