// Package simulate holds the injectable clock, sleeper and random source used
// by the demo kernels and the chat delay. Every latency produced through this
// package is simulated: it models a cost, it does not measure real I/O.
package simulate

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Sleeper waits for a simulated duration. Implementations must return early
// with ctx.Err() when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// RealSleeper blocks for the requested duration.
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoSleep returns immediately. The simulated durations are still reported.
type NoSleep struct{}

func (NoSleep) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (NoSleep) Blocks() bool { return false }

// Rand is a goroutine-safe random source.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRand(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a value in [0, n). n <= 0 yields 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Range is an inclusive-exclusive latency band [Min, Max).
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Draw picks a duration uniformly from the band. A degenerate band returns Min.
func (l Range) Draw(r *Rand) time.Duration {
	span := l.Max - l.Min
	if span <= 0 {
		return l.Min
	}
	return l.Min + time.Duration(r.Float64()*float64(span))
}

// Env bundles the simulation collaborators a kernel needs.
type Env struct {
	Clock   Clock
	Sleeper Sleeper
	Rand    *Rand
}

// NewEnv returns a production environment. With realDelays false the
// simulated durations are reported but not waited for.
func NewEnv(realDelays bool) Env {
	var s Sleeper = NoSleep{}
	if realDelays {
		s = RealSleeper{}
	}
	return Env{
		Clock:   SystemClock{},
		Sleeper: s,
		Rand:    NewRand(time.Now().UnixNano()),
	}
}

// Spend draws from the band and sleeps for the result, returning the
// simulated duration.
func (e Env) Spend(ctx context.Context, band Range) (time.Duration, error) {
	d := band.Draw(e.Rand)
	if err := e.Sleeper.Sleep(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

// Blocks reports whether Spend waits in wall-clock time. Sleepers opt out
// with a Blocks() bool method; any other sleeper is assumed to wait.
func (e Env) Blocks() bool {
	if b, ok := e.Sleeper.(interface{ Blocks() bool }); ok {
		return b.Blocks()
	}
	return true
}

// Millis converts a simulated duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
