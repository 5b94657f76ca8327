package chat

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/vamsi-1234/portfolio-engine/internal/analytics"
	"github.com/vamsi-1234/portfolio-engine/internal/chat/intent"
	"github.com/vamsi-1234/portfolio-engine/internal/chat/response"
	"github.com/vamsi-1234/portfolio-engine/internal/knowledge"
	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
)

type countingTracker struct{ events []analytics.Event }

func (c *countingTracker) Track(e analytics.Event) { c.events = append(c.events, e) }

func newService(cfg Config) (*Service, *countingTracker) {
	env, _ := simulate.TestEnv(13)
	tr := &countingTracker{}
	return NewService(response.NewGenerator(knowledge.Default()), cfg, env, tr, nil), tr
}

func TestHandleExperienceEndToEnd(t *testing.T) {
	svc, tr := newService(Config{HistoryLimit: DefaultHistoryLimit, Tracing: true})
	reply, err := svc.Handle(context.Background(), "Tell me about your experience", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Metadata.Intent != intent.Experience {
		t.Fatalf("expected experience intent, got %s", reply.Metadata.Intent)
	}
	kb := knowledge.Default()
	for _, exp := range kb.Experience() {
		if !strings.Contains(reply.Text, exp.Company) {
			t.Errorf("reply missing company %q", exp.Company)
		}
		if len(exp.Highlights) == 0 {
			t.Errorf("%s has no highlights", exp.Company)
		}
		for _, h := range exp.Highlights {
			if !strings.Contains(reply.Text, h) {
				t.Errorf("reply missing highlight %q", h)
			}
		}
	}
	if reply.Metadata.Model != DefaultModel {
		t.Errorf("unexpected model %q", reply.Metadata.Model)
	}
	if reply.Metadata.Timestamp != "2024-01-01T12:00:00Z" {
		t.Errorf("unexpected timestamp %q", reply.Metadata.Timestamp)
	}
	if len(tr.events) != 1 || tr.events[0].Kind != "experience" || !tr.events[0].Success {
		t.Errorf("unexpected analytics events %+v", tr.events)
	}
}

func TestHandleBoundsHistory(t *testing.T) {
	svc, _ := newService(Config{HistoryLimit: 6})
	history := make([]Turn, 10)
	for i := range history {
		history[i] = Turn{Role: RoleUser, Content: "hi"}
	}
	reply, err := svc.Handle(context.Background(), "hello", history)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Metadata.HistoryTurns != 6 {
		t.Errorf("expected 6 history turns read, got %d", reply.Metadata.HistoryTurns)
	}

	reply, _ = svc.Handle(context.Background(), "hello", history[:2])
	if reply.Metadata.HistoryTurns != 2 {
		t.Errorf("expected 2 history turns read, got %d", reply.Metadata.HistoryTurns)
	}
}

func TestHandleDelayReported(t *testing.T) {
	svc, _ := newService(Config{Delay: simulate.Range{Min: 300 * time.Millisecond, Max: 800 * time.Millisecond}})
	reply, err := svc.Handle(context.Background(), "what projects have you built?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ms := reply.Metadata.ProcessingTimeMs; ms < 300 || ms > 1000 {
		t.Errorf("processing time %dms outside the configured delay band", ms)
	}
}

func TestHandleRealDelayCountedOnce(t *testing.T) {
	env, _ := simulate.TestEnv(13)
	env.Sleeper = simulate.RealSleeper{}
	delay := 60 * time.Millisecond
	svc := NewService(response.NewGenerator(knowledge.Default()),
		Config{Delay: simulate.Range{Min: delay, Max: delay}}, env, &countingTracker{}, nil)

	start := time.Now()
	reply, err := svc.Handle(context.Background(), "hello", nil)
	wall := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	ms := reply.Metadata.ProcessingTimeMs
	if ms < delay.Milliseconds() {
		t.Errorf("processing time %dms shorter than the %s delay", ms, delay)
	}
	if ms > wall.Milliseconds() {
		t.Errorf("processing time %dms exceeds wall time %s", ms, wall)
	}
}

func TestHandleRejectsBlankMessage(t *testing.T) {
	svc, tr := newService(Config{})
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Handle(context.Background(), msg, nil); !stderrors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", msg, err)
		}
	}
	if len(tr.events) != 0 {
		t.Errorf("invalid input should not be tracked, got %d events", len(tr.events))
	}
}

func TestHandleCancelledDuringDelay(t *testing.T) {
	svc, tr := newService(Config{Delay: simulate.Range{Min: time.Millisecond, Max: 2 * time.Millisecond}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Handle(ctx, "hello", nil); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(tr.events) != 1 || tr.events[0].Success {
		t.Errorf("expected one failed event, got %+v", tr.events)
	}
}

func TestHandleGeneralFallback(t *testing.T) {
	svc, _ := newService(Config{})
	reply, err := svc.Handle(context.Background(), "🙂🙂", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Metadata.Intent != intent.General || reply.Text == "" {
		t.Errorf("expected non-empty general reply, got %+v", reply)
	}
}
