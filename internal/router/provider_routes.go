package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/handler"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/session"
)

// RegisterProviders registers provider discovery under /v1/providers.
// The browse endpoints run under optional auth so guests can search
// while logged-in consumers get distance-aware results; they also take
// the rate limit and response cache since they are the hot read path.
func RegisterProviders(e *echo.Echo, h *handler.ProviderHandler, guard *session.Guard, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/providers")

	g.GET("/s/:serviceId", h.ProvidersOfService, middleware.OptionalAuth(guard), limit, cache)
	g.GET("/getTopProvidersOfArea", h.TopProvidersOfArea, middleware.OptionalAuth(guard), limit, cache)
	g.POST("/addServices", h.AddServices,
		middleware.JWTAuth(guard), middleware.RequireRole(model.RoleProvider))
	g.GET("/:id", h.ProviderDetails, middleware.JWTAuth(guard))
}

// RegisterServices registers the service catalogue. Listing is public;
// verification is admin only.
func RegisterServices(e *echo.Echo, h *handler.ServiceHandler, guard *session.Guard, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/services")

	g.GET("", h.List, cache)
	g.POST("/verifyProvider/:serviceId", h.Verify,
		middleware.JWTAuth(guard), middleware.RequireRole(model.RoleAdmin))
}
