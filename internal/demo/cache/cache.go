// Package cache implements the flight-lookup caching demo: a TTL cache in
// front of a simulated slow backing store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vamsi-1234/portfolio-engine/internal/simulate"
	"github.com/vamsi-1234/portfolio-engine/pkg/errors"
)

const (
	SourceCache   = "redis_cache"
	SourceBacking = "postgresql_db"

	DefaultTTL = 60 * time.Second
)

var (
	hitLatency   = simulate.Range{Min: 0, Max: 15 * time.Millisecond}
	fetchLatency = simulate.Range{Min: 100 * time.Millisecond, Max: 250 * time.Millisecond}
)

type FlightData struct {
	FlightID  string `json:"flightId"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Status    string `json:"status"`
	Gate      string `json:"gate"`
}

// FetchResult is the outcome of one lookup. ResponseTimeMs is simulated.
type FetchResult struct {
	Data           FlightData `json:"data"`
	Cached         bool       `json:"cached"`
	ResponseTimeMs float64    `json:"responseTime"`
	Source         string     `json:"source"`
}

type Stats struct {
	Hits     int64  `json:"hits"`
	Misses   int64  `json:"misses"`
	Bypassed int64  `json:"bypassed"`
	Backend  string `json:"backend"`
}

type Kernel struct {
	store  Store
	ttl    time.Duration
	env    simulate.Env
	group  singleflight.Group
	logger *slog.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	bypassed atomic.Int64
}

func NewKernel(store Store, ttl time.Duration, env simulate.Env) *Kernel {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Kernel{
		store:  store,
		ttl:    ttl,
		env:    env,
		logger: slog.Default().With("component", "flight-cache", "backend", store.Name()),
	}
}

// Fetch returns the flight record for key. With useCache, a fresh entry is
// served from the store and a miss populates it; without it the backing
// store is always hit and the cache is left untouched.
func (k *Kernel) Fetch(ctx context.Context, key string, useCache bool) (*FetchResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.Invalid("flightId is required")
	}
	if !useCache {
		k.bypassed.Add(1)
		return k.load(ctx, key, false)
	}

	if e, ok := k.lookup(ctx, key); ok {
		d, err := k.env.Spend(ctx, hitLatency)
		if err != nil {
			return nil, err
		}
		k.hits.Add(1)
		return &FetchResult{
			Data:           e.Data,
			Cached:         true,
			ResponseTimeMs: simulate.Millis(d),
			Source:         SourceCache,
		}, nil
	}

	k.misses.Add(1)
	// The shared load outlives any one caller; each caller stops waiting
	// on its own context.
	loadCtx := context.WithoutCancel(ctx)
	ch := k.group.DoChan(key, func() (any, error) {
		return k.load(loadCtx, key, true)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		res := *r.Val.(*FetchResult)
		return &res, nil
	}
}

// lookup treats store errors and expired entries as absent.
func (k *Kernel) lookup(ctx context.Context, key string) (Entry, bool) {
	e, ok, err := k.store.Get(ctx, key)
	if err != nil {
		k.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return Entry{}, false
	}
	if !ok || k.env.Clock.Now().Sub(e.InsertedAt) >= k.ttl {
		return Entry{}, false
	}
	return e, true
}

func (k *Kernel) load(ctx context.Context, key string, populate bool) (*FetchResult, error) {
	d, err := k.env.Spend(ctx, fetchLatency)
	if err != nil {
		return nil, fmt.Errorf("backing store fetch %s: %w", key, err)
	}
	data := FlightData{
		FlightID:  key,
		Departure: "DFW",
		Arrival:   "LAX",
		Status:    "On Time",
		Gate:      fmt.Sprintf("A%d", k.env.Rand.Intn(30)+1),
	}
	if populate {
		entry := Entry{Data: data, InsertedAt: k.env.Clock.Now()}
		if err := k.store.Set(ctx, key, entry); err != nil {
			k.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return &FetchResult{
		Data:           data,
		Cached:         false,
		ResponseTimeMs: simulate.Millis(d),
		Source:         SourceBacking,
	}, nil
}

func (k *Kernel) Stats() Stats {
	return Stats{
		Hits:     k.hits.Load(),
		Misses:   k.misses.Load(),
		Bypassed: k.bypassed.Load(),
		Backend:  k.store.Name(),
	}
}

// TTL reports the freshness window.
func (k *Kernel) TTL() time.Duration { return k.ttl }
