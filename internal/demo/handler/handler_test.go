package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vamsi-1234/portfolio-engine/internal/analytics"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/batch"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/cache"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/delivery"
	"github.com/vamsi-1234/portfolio-engine/internal/demo/logsearch"
	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/metrics"
)

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recordingTracker) Track(e analytics.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func newTestHandler(t *testing.T) (*Handler, *recordingTracker, *metrics.Metrics) {
	t.Helper()
	env, _ := simulate.TestEnv(21)
	corpus := logsearch.GenerateCorpus(2000, 42)
	tracker := &recordingTracker{}
	m := metrics.New(prometheus.NewRegistry())
	h := New(
		cache.NewKernel(cache.NewMemoryStore(), cache.DefaultTTL, env),
		logsearch.NewSearcher(corpus, logsearch.BuildIndex(corpus), env),
		batch.NewKernel(4, 1000, env),
		delivery.NewKernel(env),
		tracker,
		m,
	)
	return h, tracker, m
}

func post(h *Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	h.Demo(w, httptest.NewRequest(http.MethodPost, "/api/demo", strings.NewReader(body)))
	var out map[string]any
	json.NewDecoder(w.Body).Decode(&out)
	return w, out
}

func TestDemoDispatch(t *testing.T) {
	h, tracker, _ := newTestHandler(t)
	tests := []struct {
		name    string
		body    string
		wantKey string
	}{
		{"caching", `{"type":"caching","flightId":"AA101","useCache":true}`, "cached"},
		{"search indexed", `{"type":"search","query":"error","useIndexed":true}`, "comparisons"},
		{"search linear", `{"type":"search","query":"error","useIndexed":false}`, "comparisons"},
		{"batch", `{"type":"batch","count":8,"useBatch":true}`, "connectionsUsed"},
		{"realtime", `{"type":"realtime","eventId":3,"useWebSocket":false}`, "serverLoad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := post(h, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %v", w.Code, out)
			}
			if out["success"] != true {
				t.Errorf("expected success:true, got %v", out)
			}
			if _, ok := out[tt.wantKey]; !ok {
				t.Errorf("response missing %q: %v", tt.wantKey, out)
			}
		})
	}
	if len(tracker.events) != len(tests) {
		t.Errorf("expected %d analytics events, got %d", len(tests), len(tracker.events))
	}
}

func TestDemoCachingHitOnSecondCall(t *testing.T) {
	h, _, m := newTestHandler(t)
	body := `{"type":"caching","flightId":"AA101","useCache":true}`
	_, first := post(h, body)
	_, second := post(h, body)
	if first["cached"] != false || second["cached"] != true {
		t.Errorf("expected miss then hit, got %v then %v", first["cached"], second["cached"])
	}
	if second["source"] != cache.SourceCache {
		t.Errorf("unexpected source %v", second["source"])
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("cache hits metric = %v, want 1", got)
	}

	w := httptest.NewRecorder()
	h.CacheStats(w, httptest.NewRequest(http.MethodGet, "/api/demo/cache/stats", nil))
	var stats map[string]any
	json.NewDecoder(w.Body).Decode(&stats)
	if stats["hits"] != float64(1) || stats["misses"] != float64(1) || stats["hitRate"] != float64(50) {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestDemoBatchCompatibilityFields(t *testing.T) {
	h, _, _ := newTestHandler(t)
	_, out := post(h, `{"type":"batch","useBatch":false}`)
	if out["itemCount"] != float64(12) || out["connections"] != float64(12) || out["connectionsUsed"] != float64(12) {
		t.Errorf("unexpected batch body %v", out)
	}
	if out["responseTime"] != out["totalTime"] {
		t.Errorf("responseTime should mirror totalTime: %v", out)
	}
	results, _ := out["results"].([]any)
	if len(results) != 12 {
		t.Errorf("expected 12 results, got %d", len(results))
	}
}

func TestDemoBatchExplicitZeroCount(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w, out := post(h, `{"type":"batch","count":0,"useBatch":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, out)
	}
	if out["itemCount"] != float64(0) {
		t.Errorf("itemCount = %v, want 0", out["itemCount"])
	}
	if results, _ := out["results"].([]any); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestDemoErrors(t *testing.T) {
	h, _, _ := newTestHandler(t)
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{"unknown type", `{"type":"teleport"}`, 400, "Unknown demo type"},
		{"missing type", `{"flightId":"AA1"}`, 400, "type is required"},
		{"malformed", `{"type":`, 400, "malformed JSON body"},
		{"empty body", ``, 400, "request body is required"},
		{"missing flight", `{"type":"caching","useCache":true}`, 400, "flightId is required"},
		{"blank query", `{"type":"search","query":"   "}`, 400, "query is required"},
		{"bad count type", `{"type":"batch","count":"many"}`, 400, "count must be of type int"},
		{"count too large", `{"type":"batch","count":5000}`, 400, "count must be between 0 and 1000, got 5000"},
		{"negative event", `{"type":"realtime","eventId":-2}`, 400, "eventId must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := post(h, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %v", tt.wantCode, w.Code, out)
			}
			if out["success"] != false || out["error"] != tt.wantError {
				t.Errorf("unexpected body %v", out)
			}
		})
	}

	_, out := post(h, `{"type":"teleport"}`)
	if out["receivedType"] != "teleport" {
		t.Errorf("unknown type should echo receivedType, got %v", out)
	}
}
