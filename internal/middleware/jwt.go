package middleware // middleware provides reusable HTTP request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/medoraai/clinic-backend/internal/utils"
)

// JWTAuth validates a Bearer access token and injects the subject and
// role claims into the request context under "user_id" (uint64) and
// "role" (string). Access tokens are stateless: validity is signature
// plus expiry, no store lookup. Refresh tokens presented here are
// rejected by the typ claim check.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return unauthorized(c, "invalid token")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "invalid claims")
			}
			if typ, _ := claims["typ"].(string); typ != utils.TokenTypeAccess {
				return unauthorized(c, "invalid token")
			}
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return unauthorized(c, "invalid claims")
			}
			role, _ := claims["role"].(string)

			c.Set("user_id", uint64(sub))
			c.Set("role", role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"error":   echo.Map{"code": http.StatusUnauthorized, "message": msg},
	})
}
