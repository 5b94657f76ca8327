package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHelpers(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveChat("skills")
	m.ObserveChat("skills")
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.ObserveDemo("caching", "cached", "ok", 0.01)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	if got := testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("skills")); got != 2 {
		t.Errorf("chat counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DemoRequestsTotal.WithLabelValues("caching", "cached", "ok")); got != 1 {
		t.Errorf("demo counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StreamsActive); got != 1 {
		t.Errorf("active streams = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveChat("general")
	m.ObserveDemo("batch", "batched", "ok", 0.1)
	m.ObserveComparisons("indexed", 3)
	m.ObserveCache(true)
	m.StreamOpened()
	m.StreamClosed()
	m.AnalyticsDrop()
}

func TestServerScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveChat("greeting")

	srv := httptest.NewServer(NewServer(0, reg).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `chat_requests_total{intent="greeting"} 1`) {
		t.Errorf("scrape missing chat counter:\n%s", body)
	}
}
