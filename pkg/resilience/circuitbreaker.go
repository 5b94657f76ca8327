// Package resilience guards calls to optional external stores (Redis, Kafka)
// with a circuit breaker, bounded retry and a per-call timeout, so a slow or
// unreachable dependency degrades a demo instead of failing it.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when the breaker trips and how it recovers. Zero
// values take the defaults.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
	ProbeLimit       int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Breaker opens after FailureThreshold consecutive failures, rejects calls
// for Cooldown, then admits up to ProbeLimit probes. One successful probe
// closes it again.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeLimit <= 0 {
		cfg.ProbeLimit = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
	}
}

// Do runs fn when the breaker admits the call and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		wait := b.cfg.Cooldown - b.cfg.Now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: %s (retry in %v)", ErrCircuitOpen, b.name, wait)
		}
		b.state = StateHalfOpen
		b.probes = 0
		b.logger.Info("circuit half-open", "cooldown", b.cfg.Cooldown)
		fallthrough
	case StateHalfOpen:
		if b.probes >= b.cfg.ProbeLimit {
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, b.name)
		}
		b.probes++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		if b.state == StateHalfOpen {
			b.logger.Info("circuit closed")
		}
		b.state = StateClosed
		b.failures = 0
		b.probes = 0
		return
	}
	b.failures++
	switch b.state {
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
			b.logger.Warn("circuit opened", "consecutive_failures", b.failures, "error", err)
		}
	case StateHalfOpen:
		b.trip()
		b.logger.Warn("circuit re-opened, probe failed", "error", err)
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.cfg.Now()
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.state = StateClosed
	b.failures = 0
	b.probes = 0
	b.mu.Unlock()
}
