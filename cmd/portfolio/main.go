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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/vamsi-1234/portfolio-engine/internal/analytics"
	"github.com/vamsi-1234/portfolio-engine/internal/analytics/collector"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/cache"
	"github.com/vamsi-1234/portfolio-engine/internal/knowledge"
	"github.com/vamsi-1234/portfolio-engine/internal/ratelimit"
	"github.com/vamsi-1234/portfolio-engine/pkg/config"
	"github.com/vamsi-1234/portfolio-engine/pkg/health"
	"github.com/vamsi-1234/portfolio-engine/pkg/kafka"
	"github.com/vamsi-1234/portfolio-engine/pkg/logger"
	"github.com/vamsi-1234/portfolio-engine/pkg/metrics"
	pkgredis "github.com/vamsi-1234/portfolio-engine/pkg/redis"
	"github.com/vamsi-1234/portfolio-engine/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (defaults + PF_* env when empty)")
	envFile := flag.String("env-file", ".env", "optional dotenv file with PF_* overrides")
	flag.Parse()

	if _, err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("portfolio service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("portfolio service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting portfolio service", "port", cfg.Server.Port)

	kb, err := knowledge.Load(cfg.Chat.KnowledgeFile)
	if err != nil {
		return fmt.Errorf("loading knowledge base: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	var store cache.Store = cache.NewMemoryStore()
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, flight cache kept in memory", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewBreaker("flight-cache", resilience.BreakerConfig{})
			store = cache.NewRedisStore(redisClient, cfg.Redis.CacheTTL, cfg.Redis.OpTimeout, breaker)
			slog.Info("flight cache backed by redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator(10000)
	sinks := []analytics.Sink{aggregator}
	var batcher *collector.BatchCollector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		batcher = collector.NewBatchCollector(producer, cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval)
		sinks = append(sinks, batcher)
		slog.Info("analytics export enabled", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	}
	tracker := analytics.NewCollector(10000, sinks...)
	tracker.OnDrop(m.AnalyticsDrop)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	app := newApp(cfg, kb, store, tracker, aggregator, limiter, m)

	checker := health.NewChecker()
	checker.Register("knowledge_base", health.Ready(func() bool { return len(kb.Experience()) > 0 }, "knowledge base empty"))
	checker.Register("log_index", health.Ready(func() bool { return app.index.Lines() > 0 }, "log index not built"))
	if redisClient != nil {
		checker.Register("redis", health.Ping(cfg.Redis.OpTimeout*5, redisClient.Ping))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.routes(checker),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Sinks outlive the collector so its final drain reaches them.
	sinkCtx, stopSinks := context.WithCancel(context.Background())
	defer stopSinks()
	if batcher != nil {
		batcher.Start(sinkCtx)
	}
	tracker.Start(sinkCtx)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return metricsServer.Shutdown(context.Background())
		})
	}

	g.Go(func() error {
		slog.Info("portfolio service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	tracker.Close()
	stopSinks()
	if batcher != nil {
		batcher.Close()
	}
	return err
}
