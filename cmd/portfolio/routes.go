package main

import (
	"net/http"

	"github.com/vamsi-1234/portfolio-engine/internal/analytics"
	"github.com/vamsi-1234/portfolio-engine/internal/chat"
	chathandler "github.com/vamsi-1234/portfolio-engine/internal/chat/handler"
	"github.com/vamsi-1234/portfolio-engine/internal/chat/response"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/batch"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/cache"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/delivery"
	demohandler "github.com/vamsi-1234/portfolio-engine/internal/demo/handler"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/logsearch"
	"github.com/vamsi-1234/portfolio-engine/internal/knowledge"
	"github.com/vamsi-1234/portfolio-engine/internal/ratelimit"
	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/config"
	"github.com/vamsi-1234/portfolio-engine/pkg/health"
	"github.com/vamsi-1234/portfolio-engine/pkg/metrics"
	"github.com/vamsi-1234/portfolio-engine/pkg/middleware"
)

// app holds the process-wide state built once at startup and shared by the
// handlers.
type app struct {
	cfg     *config.Config
	index   *logsearch.Index
	chat    *chathandler.Handler
	demo    *demohandler.Handler
	stream  *delivery.StreamHandler
	stats   *analytics.Handler
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
}

func newApp(
	cfg *config.Config,
	kb *knowledge.Base,
	store cache.Store,
	tracker analytics.Tracker,
	aggregator *analytics.Aggregator,
	limiter *ratelimit.Limiter,
	m *metrics.Metrics,
) *app {
	env := simulate.NewEnv(cfg.Demo.SimulateDelays)
	// The chat pause is presentational and always real when configured.
	chatEnv := simulate.NewEnv(true)

	corpus := logsearch.GenerateCorpus(cfg.Demo.CorpusSize, cfg.Demo.CorpusSeed)
	index := logsearch.BuildIndex(corpus)
	deliveryKernel := delivery.NewKernel(env)

	svc := chat.NewService(
		response.NewGenerator(kb),
		chat.Config{
			Model:        cfg.Chat.Model,
			HistoryLimit: cfg.Chat.HistoryLimit,
			Delay:        simulate.Range{Min: cfg.Chat.MinDelay, Max: cfg.Chat.MaxDelay},
			Tracing:      cfg.Tracing.Enabled,
		},
		chatEnv,
		tracker,
		m,
	)

	return &app{
		cfg:   cfg,
		index: index,
		chat:  chathandler.New(svc),
		demo: demohandler.New(
			cache.NewKernel(store, cfg.Redis.CacheTTL, env),
			logsearch.NewSearcher(corpus, index, env),
			batch.NewKernel(cfg.Demo.BatchSize, cfg.Demo.MaxBatchCount, env),
			deliveryKernel,
			tracker,
			m,
		),
		stream:  delivery.NewStreamHandler(deliveryKernel, cfg.Demo.MaxStreamEvents, cfg.Server.AllowOrigins, m),
		stats:   analytics.NewHandler(aggregator),
		limiter: limiter,
		metrics: m,
	}
}

func (a *app) routes(checker *health.Checker) http.Handler {
	timeout := middleware.Timeout(a.cfg.Server.WriteTimeout)

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", timeout(http.HandlerFunc(a.chat.Chat)))
	mux.Handle("POST /api/demo", timeout(http.HandlerFunc(a.demo.Demo)))
	mux.HandleFunc("GET /api/demo/cache/stats", a.demo.CacheStats)
	mux.Handle("GET /api/demo/realtime/stream", a.stream)
	mux.HandleFunc("GET /api/analytics", a.stats.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recover,
		middleware.Metrics(a.metrics),
		middleware.CORS(middleware.DefaultCORSConfig(a.cfg.Server.AllowOrigins)),
	}
	if a.limiter != nil {
		mws = append(mws, middleware.RateLimit(a.limiter))
	}
	return middleware.Chain(mux, mws...)
}
