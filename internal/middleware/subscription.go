package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medoraai/clinic-backend/internal/model"
)

// SubscriptionResolver loads accounts and resolves whose subscription
// state applies (staff inherit through their linked account, one
// level). Implemented by repository.UserRepo.
type SubscriptionResolver interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	EffectiveSubscriptionOwner(ctx context.Context, u model.User) (model.User, error)
}

// RequireActiveSubscription gates clinical endpoints behind an active
// (trial or paid) subscription. It runs after JWTAuth and stores the
// resolved subscription owner under "subscription_owner" for handlers
// that meter usage against the owner's plan.
func RequireActiveSubscription(users SubscriptionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("user_id").(uint64)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			ctx := c.Request().Context()
			u, err := users.GetByID(ctx, uid)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			owner, err := users.EffectiveSubscriptionOwner(ctx, u)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"success": false,
					"error":   echo.Map{"code": http.StatusInternalServerError, "message": "subscription lookup failed"},
				})
			}
			if !owner.HasActiveSubscription(time.Now().UTC()) {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"error":   echo.Map{"code": http.StatusForbidden, "message": "active subscription required"},
				})
			}
			c.Set("subscription_owner", owner)
			return next(c)
		}
	}
}
