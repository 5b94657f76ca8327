// Package tracing times the steps of a request as a tree of spans carried in
// the request context. Finished trees are written to slog at debug level.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type ctxKey struct{}

// Span times one step of a request. A nil *Span is valid and records
// nothing, so callers can trace unconditionally.
type Span struct {
	name    string
	traceID string
	start   time.Time
	elapsed time.Duration

	mu       sync.Mutex
	attrs    []slog.Attr
	children []*Span
}

// Start opens a root span and returns a context carrying it.
func Start(ctx context.Context, name, traceID string) (context.Context, *Span) {
	s := &Span{name: name, traceID: traceID, start: time.Now()}
	return context.WithValue(ctx, ctxKey{}, s), s
}

// Child opens a span under the one carried by ctx. It returns nil when ctx
// carries no span.
func Child(ctx context.Context, name string) *Span {
	parent := FromContext(ctx)
	if parent == nil {
		return nil
	}
	s := &Span{name: name, traceID: parent.traceID, start: time.Now()}
	parent.mu.Lock()
	parent.children = append(parent.children, s)
	parent.mu.Unlock()
	return s
}

// FromContext returns the span carried by ctx, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(ctxKey{}).(*Span)
	return s
}

func (s *Span) Set(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.elapsed = time.Since(s.start)
	s.mu.Unlock()
}

func (s *Span) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

func (s *Span) TraceID() string {
	if s == nil {
		return ""
	}
	return s.traceID
}

func (s *Span) Elapsed() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Children returns a snapshot of the direct children.
func (s *Span) Children() []*Span {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Emit writes one debug record per span, parents before children. Each
// record's path joins the span names from the root.
func (s *Span) Emit(logger *slog.Logger) {
	if s == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	s.emit(context.Background(), logger, s.name)
}

func (s *Span) emit(ctx context.Context, logger *slog.Logger, path string) {
	s.mu.Lock()
	attrs := make([]slog.Attr, 0, len(s.attrs)+3)
	attrs = append(attrs,
		slog.String("trace_id", s.traceID),
		slog.String("path", path),
		slog.Float64("elapsed_ms", float64(s.elapsed.Microseconds())/1000),
	)
	attrs = append(attrs, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	logger.LogAttrs(ctx, slog.LevelDebug, "span", attrs...)
	for _, c := range children {
		c.emit(ctx, logger, path+"/"+c.name)
	}
}
