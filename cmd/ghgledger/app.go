package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ghgledger/internal/audit"
	audithandler "ghgledger/internal/audit/handler"
	"ghgledger/internal/audit/outbox"
	metrichandler "ghgledger/internal/businessmetric/handler"
	metricservice "ghgledger/internal/businessmetric/service"
	metricstore "ghgledger/internal/businessmetric/store"
	emissionhandler "ghgledger/internal/emission/handler"
	emissionservice "ghgledger/internal/emission/service"
	emissionstore "ghgledger/internal/emission/store"
	factorhandler "ghgledger/internal/factor/handler"
	factorservice "ghgledger/internal/factor/service"
	factorstore "ghgledger/internal/factor/store"
	"ghgledger/internal/platform/config"
	"ghgledger/internal/platform/database"
	"ghgledger/internal/platform/health"
	"ghgledger/internal/platform/kafka/producer"
	"ghgledger/internal/platform/metrics"
	"ghgledger/internal/platform/migrate"
	"ghgledger/internal/platform/redis"
	reporthandler "ghgledger/internal/report/handler"
	reportservice "ghgledger/internal/report/service"
	reportstore "ghgledger/internal/report/store"
	httptransport "ghgledger/internal/transport/http"
	txcontext "ghgledger/pkg/platform/tx"
)

// stores is the persistence layer of one process: either every store is
// in-memory or every store is Postgres, and all of them share one tx runner.
type stores struct {
	tx      txcontext.Runner
	factors factorservice.Store
	records emissionservice.Store
	audits  audit.Store
	outbox  outbox.Store
	metrics metricservice.Store
	reports reportservice.Store
}

func memoryStores() stores {
	factors := factorstore.NewInMemory()
	records := emissionstore.NewInMemory()
	return stores{
		tx:      txcontext.NewMemoryRunner(),
		factors: factors,
		records: records,
		audits:  audit.NewInMemoryStore(),
		outbox:  outbox.NewInMemoryStore(),
		metrics: metricstore.NewInMemory(),
		reports: reportstore.NewInMemory(records, factors),
	}
}

func postgresStores(pool *database.Pool) stores {
	db := pool.DB()
	return stores{
		tx:      txcontext.NewPostgresRunner(db),
		factors: factorstore.NewPostgres(db),
		records: emissionstore.NewPostgres(db),
		audits:  audit.NewPostgresStore(db),
		outbox:  outbox.NewPostgresStore(db),
		metrics: metricstore.NewPostgres(db),
		reports: reportstore.NewPostgres(db),
	}
}

// application is the wired ledger: the HTTP handler plus whatever must be
// released on shutdown.
type application struct {
	handler http.Handler
	closers []func() error
}

func (a *application) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newApplication connects the configured backends and wires every module.
// An empty database URL selects in-memory stores.
func newApplication(cfg config.Server, logger *slog.Logger, reg *prometheus.Registry) (*application, error) {
	app := &application{}
	m := metrics.NewWithRegistry(reg)
	backend := "memory"
	if cfg.UsesPostgres() {
		backend = "postgres"
	}
	healthHandler := health.New(cfg.Environment, health.WithStoreBackend(backend))

	s := memoryStores()
	if cfg.UsesPostgres() {
		pool, err := database.New(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		if cfg.Database.AutoMigrate {
			if err := migrate.Up(pool.DB(), logger); err != nil {
				_ = app.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		healthHandler.RegisterCheck("database", pool.Health)
		s = postgresStores(pool)
		logger.Info("using postgres stores")
	} else {
		logger.Warn("no database configured, using in-memory stores")
	}

	rc, err := redis.New(cfg.Redis)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		app.closers = append(app.closers, rc.Close)
		healthHandler.RegisterCheck("redis", rc.Health)
		s.factors = factorstore.NewCachedStore(s.factors, rc.Client, cfg.Redis.CacheTTL, m, logger)
		logger.Info("factor resolution cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	factors := factorservice.New(s.factors,
		factorservice.WithTx(s.tx),
		factorservice.WithStrictWindows(cfg.Ledger.StrictFactorWindows),
		factorservice.WithLogger(logger),
		factorservice.WithMetrics(m),
	)
	trailOpts := []audit.TrailOption{
		audit.WithTrailLogger(logger),
		audit.WithTrailMetrics(m),
	}
	if cfg.PublishesAudit() {
		worker, prod, err := startOutbox(cfg.Kafka, s.outbox, m, logger)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, prod.Close, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return worker.Stop(ctx)
		})
		healthHandler.RegisterCheck("kafka", prod.Health)
		trailOpts = append(trailOpts, audit.WithOutbox(s.outbox))
		logger.Info("publishing audit batches", "topic", cfg.Kafka.AuditTopic)
	}
	trail := audit.NewTrail(s.audits, trailOpts...)
	emissions := emissionservice.New(s.records, factors, trail,
		emissionservice.WithTx(s.tx),
		emissionservice.WithLogger(logger),
		emissionservice.WithMetrics(m),
	)
	businessMetrics := metricservice.New(s.metrics, metricservice.WithLogger(logger))
	reports := reportservice.New(s.reports, businessMetrics,
		reportservice.WithHotspotLimit(cfg.Ledger.HotspotLimit),
		reportservice.WithLogger(logger),
		reportservice.WithMetrics(m),
	)

	app.handler = httptransport.NewRouter(
		httptransport.RouterConfig{
			Logger:         logger,
			RequestTimeout: cfg.RequestTimeout,
			Latency:        m,
			Gatherer:       reg,
		},
		healthHandler,
		factorhandler.New(factors, logger),
		emissionhandler.New(emissions, logger),
		audithandler.New(trail, logger),
		metrichandler.New(businessMetrics, logger),
		reporthandler.New(reports, logger),
	)
	return app, nil
}

// startOutbox connects the producer and starts the worker that drains the
// audit outbox into it.
func startOutbox(cfg config.Kafka, store outbox.Store, m *metrics.Metrics, logger *slog.Logger) (*outbox.Worker, *producer.Producer, error) {
	prod, err := producer.New(producer.Config{
		Brokers:         cfg.Brokers,
		Acks:            cfg.Acks,
		Retries:         cfg.Retries,
		DeliveryTimeout: cfg.DeliveryTimeout,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kafka: %w", err)
	}
	worker := outbox.NewWorker(store, prod,
		outbox.WithTopic(cfg.AuditTopic),
		outbox.WithBatchSize(cfg.BatchSize),
		outbox.WithPollInterval(cfg.PollInterval),
		outbox.WithRetention(cfg.Retention),
		outbox.WithWorkerMetrics(m),
		outbox.WithWorkerLogger(logger),
	)
	worker.Start()
	return worker, prod, nil
}
