package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/handler"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/session"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints and the user directory.
// Register, login and refresh live under /v1/auth without a required
// session; refresh runs under optional auth so that an attached access
// token can be cross-checked against the refresh token's subject.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard *session.Guard) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh, middleware.OptionalAuth(guard))
	g.POST("/logout", a.Logout, middleware.JWTAuth(guard))
	g.GET("/me", a.Me, middleware.JWTAuth(guard))
	g.GET("/userProfile/:id", a.UserDetails, middleware.JWTAuth(guard))

	// Directory listings are admin only.
	admin := e.Group(
		"/v1/auth",
		middleware.JWTAuth(guard),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("/providers", a.ListProviders)
	admin.GET("/consumers", a.ListConsumers)
}
