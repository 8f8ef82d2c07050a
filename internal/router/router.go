// Package router defines how HTTP routes are registered for the API.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/medoraai/clinic-backend/internal/handler"
	"github.com/medoraai/clinic-backend/internal/middleware"
	"github.com/medoraai/clinic-backend/internal/model"
)

// RegisterHealth registers the liveness and readiness probes. These are
// unauthenticated so load balancers and monitors can reach them.
func RegisterHealth(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Live)
	e.GET("/healthz/ready", h.Ready)
}

// RegisterAuth registers the token lifecycle endpoints under /v1/auth.
// None of them require an access token: login and register create
// sessions, refresh and logout authenticate by refresh token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints. The plan
// listing is cached in Redis since it changes rarely.
func RegisterPublic(e *echo.Echo, s *handler.SubscriptionHandler, rdb *redis.Client) {
	e.GET("/v1/plans", s.ListPlans, middleware.CacheJSON(rdb, 5*time.Minute))
}

// RegisterAccount registers the authenticated account surface: profile,
// password change and subscription state. These need a valid access
// token but no active subscription, so lapsed users can still view and
// pay for their plan.
func RegisterAccount(e *echo.Echo, jwtSecret string, p *handler.ProfileHandler, s *handler.SubscriptionHandler) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleClinic, model.RoleDoctor, model.RoleStaff))

	g.GET("/profile", p.Me)
	g.PUT("/profile", p.Update)
	g.POST("/profile/change-password", p.ChangePassword)

	g.GET("/subscription", s.MySubscription)
	g.POST("/subscription/receipt", s.SubmitReceipt)
	g.GET("/subscription/payments", s.PaymentHistory)
}

// RegisterClinical registers patient records and AI analyses. On top of
// authentication these require an active (trial or paid) subscription,
// resolved through the staff link when present.
func RegisterClinical(e *echo.Echo, jwtSecret string, users middleware.SubscriptionResolver,
	p *handler.PatientHandler, a *handler.AnalysisHandler) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleClinic, model.RoleDoctor, model.RoleStaff))
	g.Use(middleware.RequireActiveSubscription(users))

	g.POST("/patients", p.Create)
	g.GET("/patients", p.List)
	g.GET("/patients/:id", p.Get)
	g.PUT("/patients/:id", p.Update)
	g.DELETE("/patients/:id", p.Delete)

	g.POST("/patients/:id/analyses", a.Suggest)
	g.GET("/patients/:id/analyses", a.List)
	g.DELETE("/analyses/:id", a.Delete)
}
