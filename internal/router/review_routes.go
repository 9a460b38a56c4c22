package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/handler"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/session"
)

// RegisterReviews registers the review endpoints under /v1/reviews. All
// of them require a session; the gate itself decides who may review whom.
func RegisterReviews(e *echo.Echo, h *handler.ReviewHandler, guard *session.Guard) {
	g := e.Group("/v1/reviews", middleware.JWTAuth(guard))

	g.POST("", h.Create)
	g.GET("/p/:id", h.ListForProvider)
	g.GET("/c/:id", h.ListForConsumer)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}
