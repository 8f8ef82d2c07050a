package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Login rate limit defaults: 5 failed attempts per phone in a 15-minute
// window, mirroring the abuse deterrent this service has always shipped
// with. The counter is best-effort (see Cache); a handful of extra
// attempts under a concurrent burst is acceptable.
const (
	loginAttemptsPrefix = "login_attempts:"
	DefaultLoginMax     = 5
	DefaultLoginWindow  = 15 * time.Minute
)

// LoginLimiter throttles repeated failed logins per normalized phone
// number. All methods degrade to "allow" when the cache is absent or
// failing: throttling is an abuse deterrent, not a security control.
type LoginLimiter struct {
	Cache  Cache
	Max    int
	Window time.Duration
	Log    zerolog.Logger
}

func NewLoginLimiter(cache Cache, log zerolog.Logger) *LoginLimiter {
	return &LoginLimiter{Cache: cache, Max: DefaultLoginMax, Window: DefaultLoginWindow, Log: log}
}

func (l *LoginLimiter) key(phone string) string { return loginAttemptsPrefix + phone }

// Throttled reports whether the phone has exhausted its attempts. It is
// checked before the credential store is consulted, so a throttled
// caller costs no store load.
func (l *LoginLimiter) Throttled(ctx context.Context, phone string) bool {
	if l.Cache == nil {
		return false
	}
	n, ok, err := l.Cache.GetInt(ctx, l.key(phone))
	if err != nil {
		l.Log.Warn().Err(err).Msg("login limiter: read failed, allowing attempt")
		return false
	}
	return ok && n >= l.Max
}

// RecordFailure increments the attempt counter and resets its TTL to a
// full window from now.
func (l *LoginLimiter) RecordFailure(ctx context.Context, phone string) {
	if l.Cache == nil {
		return
	}
	n, _, err := l.Cache.GetInt(ctx, l.key(phone))
	if err != nil {
		l.Log.Warn().Err(err).Msg("login limiter: read failed, dropping failure count")
		return
	}
	if err := l.Cache.SetInt(ctx, l.key(phone), n+1, l.Window); err != nil {
		l.Log.Warn().Err(err).Msg("login limiter: write failed")
	}
}

// Clear resets the counter after a successful authentication so a
// recovered user starts the next window clean.
func (l *LoginLimiter) Clear(ctx context.Context, phone string) {
	if l.Cache == nil {
		return
	}
	if err := l.Cache.Delete(ctx, l.key(phone)); err != nil {
		l.Log.Warn().Err(err).Msg("login limiter: clear failed")
	}
}
