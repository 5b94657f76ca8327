package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pkgredis "github.com/vamsi-1234/portfolio-engine/pkg/redis"
	"github.com/vamsi-1234/portfolio-engine/pkg/resilience"
)

// Entry is a cached payload with its insertion time. Freshness is decided by
// the kernel against its own clock, so stores never expire entries early.
type Entry struct {
	Data       FlightData `json:"data"`
	InsertedAt time.Time  `json:"insertedAt"`
}

// Store is the key-value backend of the cache kernel.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	Name() string
}

// MemoryStore keeps entries in a mutex-guarded map for the process lifetime.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e Entry) error {
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

const keyPrefix = "demo:flight:"

// RedisClient is the subset of *pkgredis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore keeps entries in Redis with a native TTL. Every call runs
// behind a circuit breaker and a per-call timeout.
type RedisStore struct {
	client    RedisClient
	ttl       time.Duration
	opTimeout time.Duration
	breaker   *resilience.Breaker
}

func NewRedisStore(client RedisClient, ttl, opTimeout time.Duration, breaker *resilience.Breaker) *RedisStore {
	if breaker == nil {
		breaker = resilience.NewBreaker("flight-cache", resilience.BreakerConfig{})
	}
	return &RedisStore{client: client, ttl: ttl, opTimeout: opTimeout, breaker: breaker}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var raw []byte
	var found bool
	err := s.breaker.Do(func() error {
		return resilience.WithTimeout(ctx, s.opTimeout, "redis get", func(ctx context.Context) error {
			data, err := s.client.Get(ctx, keyPrefix+key)
			if pkgredis.IsNilError(err) {
				return nil
			}
			if err != nil {
				return err
			}
			raw, found = data, true
			return nil
		})
	})
	if err != nil || !found {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	return s.breaker.Do(func() error {
		return resilience.WithTimeout(ctx, s.opTimeout, "redis set", func(ctx context.Context) error {
			return s.client.Set(ctx, keyPrefix+key, data, s.ttl)
		})
	})
}

func (s *RedisStore) Name() string { return "redis" }
