// Package handler exposes the performance demos over HTTP. POST /api/demo
// dispatches on the "type" field to exactly one kernel.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vamsi-1234/portfolio-engine/internal/analytics"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/batch"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/cache"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/delivery"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/logsearch"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
	"github.com/vamsi-1234/portfolio-engine/pkg/logger"
	"github.com/vamsi-1234/portfolio-engine/pkg/metrics"
	"github.com/vamsi-1234/portfolio-engine/pkg/middleware"
	"github.com/vamsi-1234/portfolio-engine/pkg/validate"
)

const (
	TypeCaching  = "caching"
	TypeSearch   = "search"
	TypeBatch    = "batch"
	TypeRealtime = "realtime"
)

type cachingRequest struct {
	FlightID string `json:"flightId" validate:"required,max=32"`
	UseCache bool   `json:"useCache"`
}

type searchRequest struct {
	Query      string `json:"query" validate:"required,max=256"`
	UseIndexed bool   `json:"useIndexed"`
}

type batchRequest struct {
	// Count is nil when the field is absent, which means batch.DefaultCount.
	Count    *int `json:"count" validate:"omitnil,gte=0"`
	UseBatch bool `json:"useBatch"`
}

type realtimeRequest struct {
	EventID      int  `json:"eventId" validate:"gte=0"`
	UseWebSocket bool `json:"useWebSocket"`
}

type envelope struct {
	Type *string `json:"type"`
}

// outcome is what one kernel run reports back to the dispatcher.
type outcome struct {
	body      any
	mode      string
	cacheHit  bool
	simulated time.Duration
}

type Handler struct {
	cache    *cache.Kernel
	search   *logsearch.Searcher
	batch    *batch.Kernel
	delivery *delivery.Kernel
	tracker  analytics.Tracker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(
	cacheKernel *cache.Kernel,
	searcher *logsearch.Searcher,
	batchKernel *batch.Kernel,
	deliveryKernel *delivery.Kernel,
	tracker analytics.Tracker,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		cache:    cacheKernel,
		search:   searcher,
		batch:    batchKernel,
		delivery: deliveryKernel,
		tracker:  tracker,
		metrics:  m,
		logger:   slog.Default().With("component", "demo-handler"),
	}
}

// Demo handles POST /api/demo.
func (h *Handler) Demo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, validate.MaxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}
	var env envelope
	if err := validate.Unmarshal(bytes.NewReader(body), &env); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.Message(err, "invalid request"))
		return
	}
	if env.Type == nil {
		h.writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	demoType := *env.Type

	var run func(context.Context, []byte) (*outcome, error)
	switch demoType {
	case TypeCaching:
		run = h.runCaching
	case TypeSearch:
		run = h.runSearch
	case TypeBatch:
		run = h.runBatch
	case TypeRealtime:
		run = h.runRealtime
	default:
		log.Warn("unknown demo type", "type", demoType)
		h.metrics.ObserveDemo("unknown", "", "invalid", 0)
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":      false,
			"error":        "Unknown demo type",
			"receivedType": demoType,
		})
		return
	}

	out, err := run(ctx, body)
	if err != nil {
		h.fail(w, r, demoType, err)
		return
	}

	h.metrics.ObserveDemo(demoType, out.mode, "ok", out.simulated.Seconds())
	h.track(ctx, demoType, out.mode, out.cacheHit, true, out.simulated)
	log.Info("demo completed",
		"type", demoType,
		"mode", out.mode,
		"simulated_ms", out.simulated.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, out.body)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, demoType string, err error) {
	log := logger.FromContext(r.Context())
	status := errors.HTTPStatusCode(err)
	if status < http.StatusInternalServerError {
		h.metrics.ObserveDemo(demoType, "", "invalid", 0)
		h.writeError(w, status, errors.Message(err, "invalid request"))
		return
	}

	h.metrics.ObserveDemo(demoType, "", "error", 0)
	h.track(r.Context(), demoType, "", false, false, 0)
	details := "internal error"
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		details = "request cancelled before the demo finished"
	}
	log.Error("demo failed", "type", demoType, "error", err)
	h.writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "Demo failed",
		"details": details,
	})
}

func (h *Handler) runCaching(ctx context.Context, body []byte) (*outcome, error) {
	var req cachingRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	res, err := h.cache.Fetch(ctx, req.FlightID, req.UseCache)
	if err != nil {
		return nil, err
	}
	mode := "uncached"
	if req.UseCache {
		mode = "cached"
		h.metrics.ObserveCache(res.Cached)
	}
	return &outcome{
		body: struct {
			Success bool `json:"success"`
			*cache.FetchResult
		}{true, res},
		mode:      mode,
		cacheHit:  res.Cached,
		simulated: millis(res.ResponseTimeMs),
	}, nil
}

func (h *Handler) runSearch(ctx context.Context, body []byte) (*outcome, error) {
	var req searchRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	res, err := h.search.Search(ctx, req.Query, req.UseIndexed)
	if err != nil {
		return nil, err
	}
	mode := "linear"
	if req.UseIndexed {
		mode = "indexed"
	}
	h.metrics.ObserveComparisons(mode, res.Comparisons)
	return &outcome{
		body: struct {
			Success bool `json:"success"`
			*logsearch.SearchResult
		}{true, res},
		mode:      mode,
		simulated: millis(res.ResponseTimeMs),
	}, nil
}

func (h *Handler) runBatch(ctx context.Context, body []byte) (*outcome, error) {
	var req batchRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	count := batch.DefaultCount
	if req.Count != nil {
		count = *req.Count
	}
	res, err := h.batch.Run(ctx, count, req.UseBatch)
	if err != nil {
		return nil, err
	}
	mode := "individual"
	if req.UseBatch {
		mode = "batched"
	}
	return &outcome{
		body: struct {
			Success bool `json:"success"`
			*batch.RunResult
			ResponseTime float64 `json:"responseTime"`
			Connections  int     `json:"connections"`
		}{true, res, res.TotalTimeMs, res.ConnectionsUsed},
		mode:      mode,
		simulated: millis(res.TotalTimeMs),
	}, nil
}

func (h *Handler) runRealtime(ctx context.Context, body []byte) (*outcome, error) {
	var req realtimeRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	ev, err := h.delivery.NextEvent(ctx, req.EventID, req.UseWebSocket)
	if err != nil {
		return nil, err
	}
	mode := "poll"
	if req.UseWebSocket {
		mode = "push"
	}
	return &outcome{
		body: struct {
			Success bool `json:"success"`
			*delivery.Event
		}{true, ev},
		mode:      mode,
		simulated: millis(ev.LatencyMs),
	}, nil
}

// CacheStats handles GET /api/demo/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	s := h.cache.Stats()
	lookups := s.Hits + s.Misses
	var hitRate float64
	if lookups > 0 {
		hitRate = float64(s.Hits) / float64(lookups) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"backend":  s.Backend,
		"hits":     s.Hits,
		"misses":   s.Misses,
		"bypassed": s.Bypassed,
		"hitRate":  hitRate,
		"ttlMs":    h.cache.TTL().Milliseconds(),
	})
}

func (h *Handler) track(ctx context.Context, demoType, mode string, hit, ok bool, simulated time.Duration) {
	if h.tracker == nil {
		return
	}
	h.tracker.Track(analytics.Event{
		Surface:   analytics.SurfaceDemo,
		Kind:      demoType,
		Mode:      mode,
		CacheHit:  hit,
		Success:   ok,
		LatencyMs: simulated.Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})
}

func decode(body []byte, dst any) error {
	if err := validate.Unmarshal(bytes.NewReader(body), dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"success": false, "error": message})
}
