package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/repository"
)

// ServiceHandler serves the service catalogue and the admin verification
// endpoint.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(services *repository.ServiceRepo) *ServiceHandler {
	return &ServiceHandler{Services: services}
}

type verifyProviderReq struct {
	ProviderID uint64 `json:"providerId"`
}

// List returns the full service catalogue. Public route.
func (h *ServiceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	services, err := h.Services.ListServices(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Services fetched", "data": services})
}

// Verify marks a provider's mapping for a service as verified. Only
// verified mappings show up in discovery.
func (h *ServiceHandler) Verify(c echo.Context) error {
	serviceID, ok := paramID(c, "serviceId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "serviceId not given in params"})
	}
	var req verifyProviderReq
	if err := c.Bind(&req); err != nil || req.ProviderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "providerId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.SetVerified(ctx, req.ProviderID, serviceID, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "provider service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Provider verified for service", "data": nil})
}
