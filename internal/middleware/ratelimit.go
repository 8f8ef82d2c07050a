package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewIPRateLimit returns a fixed-window per-IP limiter backed by Redis
// (INCR + EXPIRE on first hit). It protects the whole API surface from
// floods; the login endpoint additionally has its own per-phone
// limiter in the service layer. Fail-open: a nil client or a Redis
// error lets the request through, since this is an abuse deterrent and
// not a hard control.
func NewIPRateLimit(rdb *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	if rdb == nil || limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := "rate_limit:ip:" + ip
			ctx := c.Request().Context()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("ip rate limit: redis error, allowing")
				return next(c)
			}
			if count == 1 {
				// First hit in this window opens it.
				if err := rdb.Expire(ctx, key, window).Err(); err != nil {
					log.Warn().Err(err).Str("ip", ip).Msg("ip rate limit: expire failed")
				}
			}
			if count > int64(limit) {
				retry := int(window / time.Second)
				if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					retry = int(ttl / time.Second)
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"success": false,
					"error": echo.Map{
						"code":    http.StatusTooManyRequests,
						"message": "too many requests, please try again shortly",
					},
				})
			}
			return next(c)
		}
	}
}
