package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(1, 2)
	now := time.Now()

	if !l.Allow("1.1.1.1", now) {
		t.Fatalf("expected first request allowed")
	}
	if !l.Allow("1.1.1.1", now) {
		t.Fatalf("expected second request allowed")
	}
	if l.Allow("1.1.1.1", now) {
		t.Fatalf("expected third request limited")
	}

	later := now.Add(1500 * time.Millisecond)
	if !l.Allow("1.1.1.1", later) {
		t.Fatalf("expected refill to allow after time")
	}
}

func TestLimiterDifferentClients(t *testing.T) {
	l := NewLimiter(1, 1)
	now := time.Now()

	if !l.Allow("1.1.1.1", now) {
		t.Fatalf("expected first client allowed")
	}
	if !l.Allow("2.2.2.2", now) {
		t.Fatalf("expected second client allowed")
	}
}

func TestLimiterBurstCap(t *testing.T) {
	l := NewLimiter(10, 2)
	now := time.Now()

	if !l.Allow("1.1.1.1", now) {
		t.Fatalf("expected first request allowed")
	}

	// A long idle period must not accumulate more than burst tokens.
	much := now.Add(time.Hour)
	for i := 0; i < 2; i++ {
		if !l.Allow("1.1.1.1", much) {
			t.Fatalf("expected request %d within burst allowed", i)
		}
	}
	if l.Allow("1.1.1.1", much) {
		t.Fatalf("expected request beyond burst limited")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, 0)
	if !l.Allow("1.1.1.1", time.Now()) {
		t.Fatalf("expected zero-rate limiter to pass everything")
	}
}
