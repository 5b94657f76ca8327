package analytics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type AggregatedStats struct {
	TotalChats        int64       `json:"total_chats"`
	TotalDemos        int64       `json:"total_demos"`
	Failures          int64       `json:"failures"`
	CacheHits         int64       `json:"cache_hits"`
	CacheMisses       int64       `json:"cache_misses"`
	AvgLatencyMs      float64     `json:"avg_latency_ms"`
	P50LatencyMs      int64       `json:"p50_latency_ms"`
	P95LatencyMs      int64       `json:"p95_latency_ms"`
	P99LatencyMs      int64       `json:"p99_latency_ms"`
	TopIntents        []KindCount `json:"top_intents"`
	DemoUsage         []KindCount `json:"demo_usage"`
	RequestsPerMinute float64     `json:"requests_per_minute"`
}

type KindCount struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

// Aggregator keeps running totals of tracked events in memory.
type Aggregator struct {
	mu          sync.RWMutex
	totalChats  atomic.Int64
	totalDemos  atomic.Int64
	failures    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	latencies   []int64
	maxSamples  int
	intents     map[string]int64
	demos       map[string]int64
	startTime   time.Time
}

// NewAggregator keeps at most maxSamples latency samples (oldest dropped).
func NewAggregator(maxSamples int) *Aggregator {
	if maxSamples <= 0 {
		maxSamples = 10000
	}
	return &Aggregator{
		latencies:  make([]int64, 0, 1024),
		maxSamples: maxSamples,
		intents:    make(map[string]int64),
		demos:      make(map[string]int64),
		startTime:  time.Now(),
	}
}

func (a *Aggregator) Record(event Event) {
	if !event.Success {
		a.failures.Add(1)
	}
	switch event.Surface {
	case SurfaceChat:
		a.totalChats.Add(1)
	case SurfaceDemo:
		a.totalDemos.Add(1)
		if event.Kind == "caching" && event.Success {
			if event.CacheHit {
				a.cacheHits.Add(1)
			} else {
				a.cacheMisses.Add(1)
			}
		}
	}

	a.mu.Lock()
	if len(a.latencies) >= a.maxSamples {
		a.latencies = a.latencies[1:]
	}
	a.latencies = append(a.latencies, event.LatencyMs)
	switch event.Surface {
	case SurfaceChat:
		a.intents[event.Kind]++
	case SurfaceDemo:
		a.demos[event.Kind]++
	}
	a.mu.Unlock()
}

// DefaultTop is how many intents and demo kinds Stats ranks.
const DefaultTop = 10

func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsTop(DefaultTop)
}

// StatsTop is Stats with the ranked lists cut to top entries.
func (a *Aggregator) StatsTop(top int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalChats:  a.totalChats.Load(),
		TotalDemos:  a.totalDemos.Load(),
		Failures:    a.failures.Load(),
		CacheHits:   a.cacheHits.Load(),
		CacheMisses: a.cacheMisses.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopIntents = topN(a.intents, top)
	stats.DemoUsage = topN(a.demos, top)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.RequestsPerMinute = float64(stats.TotalChats+stats.TotalDemos) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []KindCount {
	result := make([]KindCount, 0, len(counts))
	for kind, count := range counts {
		result = append(result, KindCount{Kind: kind, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Kind < result[j].Kind
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
