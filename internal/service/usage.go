package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/model"
)

// Unlimited is returned as the remaining count when the plan has no
// monthly cap.
const Unlimited = -1

// usageTTL keeps a monthly counter alive past the end of its month.
const usageTTL = 32 * 24 * time.Hour

// UsageTracker counts AI analyses per subscription owner per calendar
// month against the plan's cap. Counters live in the same injected
// cache as the login limiter and share its degradation policy: no
// cache, no cap.
type UsageTracker struct {
	Cache Cache
	Log   zerolog.Logger
}

func NewUsageTracker(cache Cache, log zerolog.Logger) *UsageTracker {
	return &UsageTracker{Cache: cache, Log: log}
}

func usageKey(userID uint64, now time.Time) string {
	return fmt.Sprintf("usage:%d:analyses:%s", userID, now.UTC().Format("2006-01"))
}

// CheckLimit reports whether the owner may run another analysis this
// month and how many remain. Accounts without a plan are not allowed;
// plans without a cap always are (remaining = Unlimited).
func (t *UsageTracker) CheckLimit(ctx context.Context, ownerID uint64, plan *model.SubscriptionPlan, now time.Time) (bool, int) {
	if plan == nil {
		return false, 0
	}
	if plan.MaxAnalysesPerMonth == nil {
		return true, Unlimited
	}
	limit := *plan.MaxAnalysesPerMonth
	used := t.currentUsage(ctx, ownerID, now)
	if used >= limit {
		return false, 0
	}
	return true, limit - used
}

// Increment bumps the monthly counter with a fresh 32-day TTL. Plans
// without a cap are not tracked at all.
func (t *UsageTracker) Increment(ctx context.Context, ownerID uint64, plan *model.SubscriptionPlan, now time.Time) {
	if t.Cache == nil || plan == nil || plan.MaxAnalysesPerMonth == nil {
		return
	}
	used := t.currentUsage(ctx, ownerID, now)
	if err := t.Cache.SetInt(ctx, usageKey(ownerID, now), used+1, usageTTL); err != nil {
		t.Log.Warn().Err(err).Uint64("user_id", ownerID).Msg("usage counter write failed")
	}
}

func (t *UsageTracker) currentUsage(ctx context.Context, ownerID uint64, now time.Time) int {
	if t.Cache == nil {
		return 0
	}
	n, _, err := t.Cache.GetInt(ctx, usageKey(ownerID, now))
	if err != nil {
		t.Log.Warn().Err(err).Uint64("user_id", ownerID).Msg("usage counter read failed")
		return 0
	}
	return n
}
