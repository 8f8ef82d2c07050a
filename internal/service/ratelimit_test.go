package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLimiter(cache Cache) *LoginLimiter {
	return NewLoginLimiter(cache, zerolog.Nop())
}

func TestLoginLimiterThrottlesAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	l := newTestLimiter(cache)

	phone := "+998901234567"
	for i := 0; i < DefaultLoginMax; i++ {
		if l.Throttled(ctx, phone) {
			t.Fatalf("throttled after %d failures, want open until %d", i, DefaultLoginMax)
		}
		l.RecordFailure(ctx, phone)
	}
	if !l.Throttled(ctx, phone) {
		t.Fatalf("not throttled after %d failures", DefaultLoginMax)
	}
}

func TestLoginLimiterWindowExpires(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	l := newTestLimiter(cache)

	phone := "+998901234567"
	for i := 0; i < DefaultLoginMax; i++ {
		l.RecordFailure(ctx, phone)
	}
	if !l.Throttled(ctx, phone) {
		t.Fatal("expected throttle before window expiry")
	}

	cache.advance(DefaultLoginWindow + time.Second)
	if l.Throttled(ctx, phone) {
		t.Fatal("still throttled after window expiry")
	}
}

func TestLoginLimiterFailureResetsTTL(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	l := newTestLimiter(cache)

	phone := "+998901234567"
	for i := 0; i < DefaultLoginMax; i++ {
		l.RecordFailure(ctx, phone)
		// Each failure pushes the expiry a full window out.
		cache.advance(DefaultLoginWindow / 2)
	}
	if !l.Throttled(ctx, phone) {
		t.Fatal("expected throttle: every failure restarts the window")
	}
}

func TestLoginLimiterClear(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	l := newTestLimiter(cache)

	phone := "+998901234567"
	for i := 0; i < DefaultLoginMax; i++ {
		l.RecordFailure(ctx, phone)
	}
	l.Clear(ctx, phone)
	if l.Throttled(ctx, phone) {
		t.Fatal("throttled after Clear")
	}
}

func TestLoginLimiterIsPerPhone(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	l := newTestLimiter(cache)

	for i := 0; i < DefaultLoginMax; i++ {
		l.RecordFailure(ctx, "+998901111111")
	}
	if l.Throttled(ctx, "+998902222222") {
		t.Fatal("failures on one phone throttled another")
	}
}

func TestLoginLimiterFailsOpen(t *testing.T) {
	ctx := context.Background()

	// No cache at all.
	l := newTestLimiter(nil)
	if l.Throttled(ctx, "+998901234567") {
		t.Fatal("throttled with no cache configured")
	}
	l.RecordFailure(ctx, "+998901234567")
	l.Clear(ctx, "+998901234567")

	// Cache present but erroring.
	cache := newMemCache()
	cache.fail = true
	l = newTestLimiter(cache)
	if l.Throttled(ctx, "+998901234567") {
		t.Fatal("throttled while cache is failing")
	}
}
