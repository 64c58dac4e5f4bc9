// Command analytics consumes parse events from Kafka and aggregates them in
// memory: outcomes, warning codes, query classes, features, top queries and
// parse latency. Stats are served at GET /api/v1/analytics and snapshotted
// to PostgreSQL so they survive restarts.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	noPersist := flag.Bool("no-persist", false, "keep stats in memory only")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, !*noPersist); err != nil {
		slog.Error("analytics service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics service stopped")
}

// maxConsumerLag is the parse event backlog above which analytics reports
// itself degraded.
const maxConsumerLag = 10000

func run(ctx context.Context, cfg *config.Config, persist bool) error {
	slog.Info("starting analytics service", "port", cfg.Analytics.Port, "persist", persist)
	g, ctx := errgroup.WithContext(ctx)
	checker := health.NewChecker()

	agg := analytics.NewAggregator(cfg.Analytics.TopQueries, cfg.Analytics.LatencySamples)

	var snapshots analytics.SnapshotLister
	if persist {
		db, err := postgres.Connect(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 5})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()

		store := aggregator.NewStore(db.DB)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		latest, err := store.LatestSnapshot(ctx)
		if err != nil {
			return err
		}
		if latest != nil {
			agg.Restore(*latest)
			slog.Info("analytics restored from snapshot", "total_parses", latest.TotalParses, "captured_at", latest.CapturedAt)
		}
		g.Go(func() error {
			return store.RunPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval, 5*time.Second)
		})
		checker.Register("postgres", db.HealthCheck())
		snapshots = store
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ParseEvents, analytics.HandleEvent(agg))
	g.Go(func() error { return consumer.Start(ctx) })
	checker.RegisterOptional("kafka", func(context.Context) health.ComponentHealth {
		st := consumer.Stats()
		msg := fmt.Sprintf("lag %d, %d processed, %d skipped, %d failed", st.Lag, st.Processed, st.Skipped, st.Failed)
		if st.Lag > maxConsumerLag {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: msg}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: msg}
	})
	slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.ParseEvents)

	h := analytics.NewHandler(agg, snapshots)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", h.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      middleware.Chain(mux, middleware.RequestID, middleware.AccessLog),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
