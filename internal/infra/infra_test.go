package infra

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("Get = %v, %v", v, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	c.SetWithTTL("k", "v", 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to be absent")
	}
}

func TestCacheInvalidateAndFlush(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("invalidated key still present")
	}
	c.Flush()
	if _, ok := c.Get("b"); ok {
		t.Error("flushed key still present")
	}
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestRateLimiterHonorsCancellation(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected context error on exhausted bucket")
	}
}
