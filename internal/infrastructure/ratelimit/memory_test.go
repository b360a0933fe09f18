package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Policy{Name: "auth", Window: 15 * time.Minute, Max: 2})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		if err != nil || !d.Allowed {
			t.Fatalf("hit %d: expected allowed, got %+v %v", i+1, d, err)
		}
	}
	d, _ := l.Allow(ctx, "1.2.3.4")
	if d.Allowed || d.Remaining != 0 || d.Limit != 2 {
		t.Fatalf("third hit should be rejected: %+v", d)
	}
	if d.RetryAfter != 15*time.Minute {
		t.Fatalf("RetryAfter = %v", d.RetryAfter)
	}

	if d, _ := l.Allow(ctx, "5.6.7.8"); !d.Allowed || d.Remaining != 1 {
		t.Fatalf("other key must have its own window: %+v", d)
	}

	now = now.Add(15 * time.Minute)
	if d, _ := l.Allow(ctx, "1.2.3.4"); !d.Allowed || d.Remaining != 1 {
		t.Fatalf("window should reset: %+v", d)
	}
}

func TestMemoryLimiter_RetryAfterShrinks(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Policy{Name: "general", Window: time.Minute, Max: 1})
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "k")
	now = now.Add(40 * time.Second)
	d, _ := l.Allow(context.Background(), "k")
	if d.Allowed || d.RetryAfter != 20*time.Second {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestMemoryLimiter_SweepsExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Policy{Name: "general", Window: time.Minute, Max: 5})
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "a")
	_, _ = l.Allow(context.Background(), "b")
	now = now.Add(2 * time.Minute)
	_, _ = l.Allow(context.Background(), "c")
	if len(l.windows) != 1 {
		t.Fatalf("expected expired windows to be swept, have %d", len(l.windows))
	}
}
