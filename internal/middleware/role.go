package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medoraai/clinic-backend/internal/model"
)

// RequireRole enforces that the authenticated user holds one of the
// given roles, as stored in the JWT "role" claim by JWTAuth. Requests
// with a missing or unlisted role are rejected with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"error":   echo.Map{"code": http.StatusForbidden, "message": "forbidden"},
				})
			}
			return next(c)
		}
	}
}
