package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLoginRateLimiter_BlocksAfterMax(t *testing.T) {
	limiter := NewLoginRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("+221700000001") {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}
	if limiter.Allow("+221700000001") {
		t.Fatalf("expected fourth attempt to be blocked")
	}
	if !limiter.Allow("+221700000002") {
		t.Fatalf("other key should be unaffected")
	}
}

func TestLoginRateLimiter_DropsIdleKeys(t *testing.T) {
	limiter := NewLoginRateLimiter(time.Minute, 3).(*loginRateLimiter)
	limiter.hits["+221700000001"] = []time.Time{time.Now().UTC().Add(-2 * time.Minute)}
	limiter.lastSweep = time.Now().UTC().Add(-2 * time.Minute)

	if !limiter.Allow("+221700000002") {
		t.Fatalf("fresh key should be allowed")
	}

	limiter.mu.Lock()
	_, stale := limiter.hits["+221700000001"]
	_, fresh := limiter.hits["+221700000002"]
	limiter.mu.Unlock()
	if stale {
		t.Fatalf("expected idle key to be swept")
	}
	if !fresh {
		t.Fatalf("expected active key to survive the sweep")
	}
}

func TestRedisLoginRateLimiter_BlocksAfterMax(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisLoginRateLimiter(client, time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("+221700000001") {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}
	if limiter.Allow("+221700000001") {
		t.Fatalf("expected fourth attempt to be blocked")
	}

	mr.FastForward(2 * time.Minute)
	if !limiter.Allow("+221700000001") {
		t.Fatalf("expected window to reset")
	}
}
