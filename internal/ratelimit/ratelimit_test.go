package ratelimit

import (
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func TestAllowAndRefill(t *testing.T) {
	clock := &fakeNow{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLimiter(3, time.Minute, clock.now)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("fourth request should be limited")
	}
	if ra := l.RetryAfter("1.2.3.4"); ra <= 0 || ra > 20*time.Second {
		t.Errorf("unexpected retry-after %v", ra)
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other keys have their own bucket")
	}

	clock.t = clock.t.Add(20 * time.Second)
	if !l.Allow("1.2.3.4") {
		t.Error("one token should have refilled after a third of the window")
	}
	if l.Allow("1.2.3.4") {
		t.Error("only one token should have refilled")
	}
}

func TestSweepAndReset(t *testing.T) {
	clock := &fakeNow{t: time.Now()}
	l := newLimiter(1, time.Second, clock.now)
	l.Allow("a")
	l.Allow("b")
	l.Reset("b")
	if !l.Allow("b") {
		t.Error("reset key should start with a fresh bucket")
	}
	clock.t = clock.t.Add(3 * time.Second)
	if n := l.sweep(); n != 2 {
		t.Errorf("expected 2 idle keys swept, got %d", n)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := New(10, time.Second)
	l.Stop()
	l.Stop()
}
