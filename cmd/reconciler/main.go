package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranakart/kiranakart-backend/internal/bulkorders"
	"github.com/kiranakart/kiranakart-backend/internal/distributors"
	"github.com/kiranakart/kiranakart-backend/internal/ledger"
	"github.com/kiranakart/kiranakart-backend/internal/reconcile"
	"github.com/kiranakart/kiranakart-backend/pkg/config"
	"github.com/kiranakart/kiranakart-backend/pkg/db"
	"github.com/kiranakart/kiranakart-backend/pkg/logger"
	"github.com/kiranakart/kiranakart-backend/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconciler",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	actorID, err := uuid.Parse(cfg.Reconcile.ActorID)
	if err != nil {
		logg.Error(context.Background(), "KIRANAKART_RECONCILE_ACTOR_ID must be a valid uuid", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	gormDB := dbClient.DB()
	ledgerService, err := ledger.NewService(dbClient, ledger.NewRepository(gormDB), distributors.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	job, err := reconcile.NewJob(
		bulkorders.NewRepository(gormDB),
		ledgerService,
		cfg.Reconcile,
		actorID,
		jobMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go serveMetrics(ctx, cfg, logg)

	logg.Info(logg.WithField(ctx, "interval", cfg.Reconcile.Interval.String()), "starting ledger reconciler")
	job.Start(ctx)
	logg.Info(context.Background(), "reconciler stopped")
}

// serveMetrics exposes the Prometheus scrape endpoint. The reconciler is a
// standalone process, so it reuses the configured app port.
func serveMetrics(ctx context.Context, cfg *config.Config, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + cfg.App.Port, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
