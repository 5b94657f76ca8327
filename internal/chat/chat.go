// Package chat answers portfolio questions: it classifies a message, renders
// the scripted reply and attaches request metadata.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vamsi-1234/portfolio-engine/internal/analytics"
	"github.com/vamsi-1234/portfolio-engine/internal/chat/intent"
	"github.com/vamsi-1234/portfolio-engine/internal/chat/response"
	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
	"github.com/vamsi-1234/portfolio-engine/pkg/logger"
	"github.com/vamsi-1234/portfolio-engine/pkg/metrics"
	"github.com/vamsi-1234/portfolio-engine/pkg/tracing"
)

const (
	DefaultModel        = "mcp-assistant-v1"
	DefaultHistoryLimit = 6
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message supplied by the caller. The service never
// stores history.
type Turn struct {
	Role     Role           `json:"role" validate:"required,oneof=user assistant"`
	Content  string         `json:"content" validate:"max=4000"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Metadata struct {
	Intent           intent.Intent  `json:"intent"`
	Context          map[string]any `json:"context"`
	Model            string         `json:"model"`
	Timestamp        string         `json:"timestamp"`
	ProcessingTimeMs int64          `json:"processingTime"`
	HistoryTurns     int            `json:"historyTurns"`
}

type Reply struct {
	Text     string   `json:"response"`
	Metadata Metadata `json:"metadata"`
}

type Config struct {
	Model        string
	HistoryLimit int
	// Delay is a presentational pause before replying. A zero range
	// disables it.
	Delay   simulate.Range
	Tracing bool
}

type Service struct {
	generator *response.Generator
	cfg       Config
	env       simulate.Env
	tracker   analytics.Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(gen *response.Generator, cfg Config, env simulate.Env, tracker analytics.Tracker, m *metrics.Metrics) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Service{
		generator: gen,
		cfg:       cfg,
		env:       env,
		tracker:   tracker,
		metrics:   m,
		logger:    slog.Default().With("component", "chat"),
	}
}

// Handle answers message. Only the last HistoryLimit turns of history are
// read.
func (s *Service) Handle(ctx context.Context, message string, history []Turn) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.Invalid("message must not be empty")
	}
	start := time.Now()
	requestID := logger.RequestID(ctx)

	var root *tracing.Span
	if s.cfg.Tracing {
		ctx, root = tracing.Start(ctx, "chat.handle", requestID)
	}

	recent := lastTurns(history, s.cfg.HistoryLimit)

	span := tracing.Child(ctx, "chat.classify")
	in := intent.Classify(message)
	span.Set("intent", string(in))
	span.End()

	span = tracing.Child(ctx, "chat.generate")
	resp := s.generator.Generate(in)
	span.Set("chars", len(resp.Text))
	span.End()

	var delay time.Duration
	if s.cfg.Delay.Max > 0 {
		var err error
		if delay, err = s.env.Spend(ctx, s.cfg.Delay); err != nil {
			s.record(ctx, in, false, 0)
			return nil, err
		}
	}

	// A blocking sleeper already shows up in the wall time.
	processing := time.Since(start)
	if !s.env.Blocks() {
		processing += delay
	}
	reply := &Reply{
		Text: resp.Text,
		Metadata: Metadata{
			Intent:           in,
			Context:          resp.Context,
			Model:            s.cfg.Model,
			Timestamp:        s.env.Clock.Now().UTC().Format(time.RFC3339),
			ProcessingTimeMs: processing.Milliseconds(),
			HistoryTurns:     len(recent),
		},
	}

	root.Set("history_turns", len(recent))
	root.End()
	root.Emit(logger.FromContext(ctx))
	s.record(ctx, in, true, processing)
	logger.FromContext(ctx).Info("chat handled",
		"intent", in,
		"history_turns", len(recent),
		"processing_ms", processing.Milliseconds(),
	)
	return reply, nil
}

func (s *Service) record(ctx context.Context, in intent.Intent, ok bool, d time.Duration) {
	s.metrics.ObserveChat(string(in))
	if s.tracker == nil {
		return
	}
	s.tracker.Track(analytics.Event{
		Surface:   analytics.SurfaceChat,
		Kind:      string(in),
		Success:   ok,
		LatencyMs: d.Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
}

func lastTurns(history []Turn, limit int) []Turn {
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
