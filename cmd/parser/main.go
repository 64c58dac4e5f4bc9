// Command parser serves the full-text query parser over HTTP.
//
// Parse results are cached in Redis when enabled, parse events are
// published to Kafka for the analytics service, and the namespace table
// can be loaded from PostgreSQL and refreshed periodically.
//
// Usage:
//
//	go run ./cmd/parser [-config configs/development.yaml]
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
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/namespace"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/features"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("parser service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("parser service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting parser service", "port", cfg.Server.Port)
	m := metrics.New()
	checker := health.NewChecker()
	g, ctx := errgroup.WithContext(ctx)

	resolver := namespace.NewStatic(cfg.Namespaces.Names)
	var refresher *namespace.Refresher
	if cfg.Namespaces.FromPostgres {
		db, err := postgres.Connect(ctx, cfg.Postgres, resilience.RetryConfig{MaxAttempts: 5})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()

		store := namespace.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		added, err := store.Seed(ctx, cfg.Namespaces.Names)
		if err != nil {
			return err
		}
		if added > 0 {
			slog.Info("seeded namespaces", "added", added)
		}
		refresher = namespace.NewRefresher(resolver, store, cfg.Namespaces.Names, cfg.Namespaces.RefreshInterval)
		if err := refresher.Refresh(ctx); err != nil {
			return err
		}
		checker.Register("postgres", db.HealthCheck())
		slog.Info("namespaces loaded from postgres", "count", resolver.Len())
	}

	registry, err := features.Registry(cfg.Parser.Features, resolver)
	if err != nil {
		return err
	}
	p, err := parser.New(parserConfig(cfg.Parser), registry, parser.WithNamespaceResolver(resolver))
	if err != nil {
		return err
	}

	var opts []handler.Option
	opts = append(opts, handler.WithMetrics(m))

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, parse caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, _, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			parseCache := cache.New(redisClient, cache.Options{
				TTL:         cfg.Redis.CacheTTL,
				Fingerprint: fingerprint(cfg.Parser, resolver.Digest()),
				Breaker:     breaker,
				Metrics:     m,
			})
			opts = append(opts, handler.WithCache(parseCache))
			checker.RegisterOptional("redis", health.PingCheck(redisClient.Ping))
			if refresher != nil {
				refresher.OnChange(func(ctx context.Context) {
					if _, err := parseCache.Invalidate(ctx); err != nil {
						slog.Warn("parse cache invalidation after namespace change failed", "error", err)
					}
				})
			}
			slog.Info("parse cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if refresher != nil {
		g.Go(func() error {
			refresher.Run(ctx)
			return nil
		})
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ParseEvents)
		defer producer.Close()
		events := collector.NewBatchCollector(producer, m, cfg.Analytics.BufferSize, 2*time.Second)
		g.Go(func() error { return events.Run(ctx) })
		opts = append(opts, handler.WithCollector(events))
		checker.RegisterOptional("kafka", func(ctx context.Context) health.ComponentHealth {
			if err := producer.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			if n := events.BufferLen(); n >= 3*cfg.Analytics.BufferSize {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: fmt.Sprintf("%d events buffered", n)}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		slog.Info("parse events published", "topic", cfg.Kafka.Topics.ParseEvents)
	}

	mux := http.NewServeMux()
	handler.New(p, opts...).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.AccessLog,
		middleware.Metrics(m),
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		g.Go(func() error {
			limiter.RunCleanup(ctx, cfg.RateLimit.Window)
			return nil
		})
		mws = append(mws, ratelimit.Middleware(limiter, m))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("parser service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Port)
		g.Go(func() error { return metrics.Serve(ctx, metricsSrv, cfg.Server.ShutdownTimeout) })
	}

	return g.Wait()
}

func parserConfig(c config.ParserConfig) parser.Config {
	return parser.Config{
		QuestionMarkStripLevel:    parser.StripLevel(c.QuestionMarkStripLevel),
		QMarkExemptPrefixes:       c.QMarkExemptPrefixes,
		CaseInsensitiveNamespaces: c.CaseInsensitiveNamespaces,
		Language:                  c.Language,
		MaxQueryLength:            c.MaxQueryLength,
		LengthExemptKeywords:      c.LengthExemptKeywords,
	}
}

// fingerprint covers every option that changes parse output, plus the
// namespace table as loaded at startup. Later table changes invalidate the
// cache instead.
func fingerprint(c config.ParserConfig, namespaces string) string {
	return cache.Fingerprint(
		c.QuestionMarkStripLevel,
		strings.Join(c.QMarkExemptPrefixes, ","),
		fmt.Sprint(c.CaseInsensitiveNamespaces),
		c.Language,
		fmt.Sprint(c.MaxQueryLength),
		strings.Join(c.LengthExemptKeywords, ","),
		strings.Join(c.Features, ","),
		namespaces,
	)
}
