package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/model"
)

func planWithCap(n int) *model.SubscriptionPlan {
	return &model.SubscriptionPlan{ID: 1, Name: "Pro", MaxAnalysesPerMonth: &n}
}

func TestUsageTrackerEnforcesMonthlyCap(t *testing.T) {
	ctx := context.Background()
	tracker := NewUsageTracker(newMemCache(), zerolog.Nop())
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	plan := planWithCap(3)

	for i := 0; i < 3; i++ {
		allowed, remaining := tracker.CheckLimit(ctx, 1, plan, now)
		if !allowed {
			t.Fatalf("analysis %d blocked, want allowed", i+1)
		}
		if remaining != 3-i {
			t.Fatalf("analysis %d: remaining = %d, want %d", i+1, remaining, 3-i)
		}
		tracker.Increment(ctx, 1, plan, now)
	}
	if allowed, _ := tracker.CheckLimit(ctx, 1, plan, now); allowed {
		t.Fatal("fourth analysis allowed past the cap")
	}
}

func TestUsageTrackerResetsNextMonth(t *testing.T) {
	ctx := context.Background()
	tracker := NewUsageTracker(newMemCache(), zerolog.Nop())
	plan := planWithCap(1)
	march := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC)

	tracker.Increment(ctx, 1, plan, march)
	if allowed, _ := tracker.CheckLimit(ctx, 1, plan, march); allowed {
		t.Fatal("cap not enforced in march")
	}
	if allowed, _ := tracker.CheckLimit(ctx, 1, plan, april); !allowed {
		t.Fatal("counter did not reset for a new month")
	}
}

func TestUsageTrackerUnlimitedPlan(t *testing.T) {
	ctx := context.Background()
	tracker := NewUsageTracker(newMemCache(), zerolog.Nop())
	plan := &model.SubscriptionPlan{ID: 2, Name: "Unlimited"}
	now := time.Now().UTC()

	allowed, remaining := tracker.CheckLimit(ctx, 1, plan, now)
	if !allowed || remaining != Unlimited {
		t.Fatalf("unlimited plan: allowed=%v remaining=%d", allowed, remaining)
	}
	// Uncapped plans are not tracked.
	cache := newMemCache()
	tracker = NewUsageTracker(cache, zerolog.Nop())
	tracker.Increment(ctx, 1, plan, now)
	if cache.sets != 0 {
		t.Fatal("increment wrote a counter for an uncapped plan")
	}
}

func TestUsageTrackerNoPlan(t *testing.T) {
	tracker := NewUsageTracker(newMemCache(), zerolog.Nop())
	if allowed, _ := tracker.CheckLimit(context.Background(), 1, nil, time.Now()); allowed {
		t.Fatal("account without a plan allowed to run analyses")
	}
}

func TestUsageTrackerCountersArePerOwner(t *testing.T) {
	ctx := context.Background()
	tracker := NewUsageTracker(newMemCache(), zerolog.Nop())
	plan := planWithCap(1)
	now := time.Now().UTC()

	tracker.Increment(ctx, 1, plan, now)
	if allowed, _ := tracker.CheckLimit(ctx, 2, plan, now); !allowed {
		t.Fatal("owner 2 throttled by owner 1's usage")
	}
}

func TestUsageTrackerDegradesWithoutCache(t *testing.T) {
	tracker := NewUsageTracker(nil, zerolog.Nop())
	plan := planWithCap(1)
	now := time.Now().UTC()
	ctx := context.Background()

	tracker.Increment(ctx, 1, plan, now)
	tracker.Increment(ctx, 1, plan, now)
	if allowed, _ := tracker.CheckLimit(ctx, 1, plan, now); !allowed {
		t.Fatal("capless degradation: expected allow when cache is absent")
	}
}
