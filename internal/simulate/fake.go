package simulate

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced clock for tests and deterministic runs.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TestEnv returns a deterministic environment with no real waiting.
func TestEnv(seed int64) (Env, *FakeClock) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return Env{Clock: clock, Sleeper: NoSleep{}, Rand: NewRand(seed)}, clock
}
