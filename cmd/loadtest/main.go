// Command loadtest drives mixed chat and demo traffic against a running
// portfolio service and prints per-scenario latency and status summaries.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// scenario is one kind of request in the traffic mix.
type scenario struct {
	name string
	body func(seq int) any
}

var scenarios = []scenario{
	{"chat", func(seq int) any {
		msgs := []string{"hello", "what are your skills?", "tell me about your experience", "how do you optimize performance?", "how can I contact you?"}
		return map[string]any{"message": msgs[seq%len(msgs)]}
	}},
	{"caching", func(seq int) any {
		return map[string]any{"type": "caching", "flightId": fmt.Sprintf("AA%d", 100+seq%20), "useCache": seq%4 != 0}
	}},
	{"search", func(seq int) any {
		queries := []string{"connection timeout", "database", "cache hit", "memory usage"}
		return map[string]any{"type": "search", "query": queries[seq%len(queries)], "useIndexed": seq%2 == 0}
	}},
	{"batch", func(seq int) any {
		return map[string]any{"type": "batch", "count": 12, "useBatch": seq%2 == 0}
	}},
	{"realtime", func(seq int) any {
		return map[string]any{"type": "realtime", "eventId": seq % 10, "useWebSocket": seq%2 == 0}
	}},
}

type scenarioStats struct {
	requests  atomic.Int64
	failures  atomic.Int64
	cacheHits atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func newScenarioStats() *scenarioStats {
	return &scenarioStats{codes: make(map[int]int64)}
}

func (s *scenarioStats) record(d time.Duration, code int, err error) {
	s.requests.Add(1)
	if err != nil || code < 200 || code >= 300 {
		s.failures.Add(1)
	}
	if err != nil {
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the portfolio service")
	concurrency := flag.Int("concurrency", 8, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	only := flag.String("scenarios", "", "comma-separated subset of scenarios (chat,caching,search,batch,realtime)")
	flag.Parse()

	mix := selectScenarios(*only)
	if len(mix) == 0 {
		fmt.Fprintf(os.Stderr, "no scenarios match %q\n", *only)
		os.Exit(2)
	}

	fmt.Println("=== Portfolio Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Scenarios:   %d\n\n", len(mix))

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	stopProgress := showProgress(ctx, *duration)
	stats := run(ctx, *baseURL, *concurrency, mix)
	stopProgress()
	if !report(stats, mix, *duration) {
		fmt.Println("\nWARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func selectScenarios(filter string) []scenario {
	if filter == "" {
		return scenarios
	}
	want := make(map[string]bool)
	for _, name := range strings.Split(filter, ",") {
		want[strings.TrimSpace(name)] = true
	}
	var out []scenario
	for _, s := range scenarios {
		if want[s.name] {
			out = append(out, s)
		}
	}
	return out
}

func run(ctx context.Context, baseURL string, workers int, mix []scenario) map[string]*scenarioStats {
	stats := make(map[string]*scenarioStats, len(mix))
	for _, s := range mix {
		stats[s.name] = newScenarioStats()
	}

	client := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        workers * 2,
			MaxIdleConnsPerHost: workers * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for seq := w; ctx.Err() == nil; seq++ {
				s := mix[seq%len(mix)]
				fire(ctx, client, baseURL, s, seq, stats[s.name])
			}
			return nil
		})
	}
	g.Wait()
	return stats
}

// showProgress ticks a bar once per second of the run on stderr.
func showProgress(ctx context.Context, d time.Duration) (stop func()) {
	bar := progressbar.NewOptions64(int64(d/time.Second),
		progressbar.OptionSetDescription("load"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() { <-done }
}

func fire(ctx context.Context, client *http.Client, baseURL string, s scenario, seq int, st *scenarioStats) {
	path := "/api/demo"
	if s.name == "chat" {
		path = "/api/chat"
	}
	payload, err := json.Marshal(s.body(seq))
	if err != nil {
		st.record(0, 0, err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		st.record(0, 0, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		// Requests cut off by the end of the run are not failures.
		if ctx.Err() == nil {
			st.record(elapsed, 0, err)
		}
		return
	}
	defer resp.Body.Close()

	var body struct {
		Cached bool `json:"cached"`
	}
	if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Cached {
		st.cacheHits.Add(1)
	}
	st.record(elapsed, resp.StatusCode, nil)
}

func report(stats map[string]*scenarioStats, mix []scenario, duration time.Duration) bool {
	var total int64
	for _, s := range mix {
		st := stats[s.name]
		n := st.requests.Load()
		total += n

		fmt.Printf("=== %s ===\n", s.name)
		fmt.Printf("Requests:     %d (%.2f/s)\n", n, float64(n)/duration.Seconds())
		fmt.Printf("Failures:     %d\n", st.failures.Load())
		if s.name == "caching" {
			fmt.Printf("Cache hits:   %d\n", st.cacheHits.Load())
		}

		st.mu.Lock()
		lat := append([]time.Duration(nil), st.latencies...)
		codes := make([]int, 0, len(st.codes))
		for c := range st.codes {
			codes = append(codes, c)
		}
		sort.Ints(codes)
		for _, c := range codes {
			fmt.Printf("  HTTP %d:    %d\n", c, st.codes[c])
		}
		st.mu.Unlock()

		if len(lat) > 0 {
			sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
			fmt.Printf("Latency:      min=%s p50=%s p95=%s p99=%s max=%s\n",
				lat[0], percentile(lat, 50), percentile(lat, 95), percentile(lat, 99), lat[len(lat)-1])
		}
		fmt.Println()
	}
	return total > 0
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
