package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/handler"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/session"
)

// RegisterAppointments registers the appointment endpoints under
// /v1/appointments. Every route requires a valid session; the per-party
// listings additionally pin the caller's role.
func RegisterAppointments(e *echo.Echo, h *handler.AppointmentHandler, guard *session.Guard) {
	g := e.Group("/v1/appointments", middleware.JWTAuth(guard))

	g.POST("", h.Create)
	g.GET("/p/:id", h.ListForProvider, middleware.RequireRole(model.RoleProvider))
	g.GET("/c/:id", h.ListForConsumer, middleware.RequireRole(model.RoleConsumer))
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/updateDate/:id", h.UpdateDate)
	g.PATCH("/updateStatus/:id", h.UpdateStatus,
		middleware.RequireRole(model.RoleProvider, model.RoleConsumer))
}
