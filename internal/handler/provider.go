package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/discovery"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
)

// ProviderHandler serves provider discovery and the provider's own
// service management.
type ProviderHandler struct {
	Finder   *discovery.Finder
	Users    *repository.UserRepo
	Services *repository.ServiceRepo
}

func NewProviderHandler(finder *discovery.Finder, users *repository.UserRepo, services *repository.ServiceRepo) *ProviderHandler {
	return &ProviderHandler{Finder: finder, Users: users, Services: services}
}

type addServicesReq struct {
	ServiceIDs []uint64 `json:"serviceIds"`
}

// ProvidersOfService lists the verified providers of a service. The route
// runs under optional auth: with a known consumer and a byLocationThres
// query parameter the listing is distance-filtered (threshold clamped to
// [3, 30] km); with a consumer but no threshold every row is annotated
// with its distance; anonymous callers get the raw rating-ordered list.
func (h *ProviderHandler) ProvidersOfService(c echo.Context) error {
	serviceID, ok := paramID(c, "serviceId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "serviceId not given in params"})
	}
	consumerID := middleware.CurrentUserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		rows []discovery.Ranked
		err  error
	)
	thres, hasThres := thresholdParam(c)
	if hasThres && consumerID != 0 {
		rows, err = h.Finder.FilterByDistance(ctx, serviceID, consumerID, thres)
	} else {
		rows, err = h.Finder.ListOfService(ctx, serviceID, consumerID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "providers List fetched", "data": rows})
}

// thresholdParam reads byLocationThres, clamped into the supported window.
// Non-numeric values read as absent.
func thresholdParam(c echo.Context) (float64, bool) {
	raw := c.QueryParam("byLocationThres")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return discovery.ClampThreshold(v), true
}

// TopProvidersOfArea returns the three best providers near the caller,
// or the top three by rating for anonymous callers.
func (h *ProviderHandler) TopProvidersOfArea(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Finder.TopOfArea(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "providers List fetched", "data": rows})
}

// AddServices opts the authenticated provider into the given services.
// New mappings start unverified with a zero rating.
func (h *ProviderHandler) AddServices(c echo.Context) error {
	var req addServicesReq
	if err := c.Bind(&req); err != nil || len(req.ServiceIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "serviceIds required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.Services.AddServicesToProvider(ctx, middleware.CurrentUserID(c), req.ServiceIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add services failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Services added", "data": echo.Map{"count": count}})
}

// ProviderDetails returns a provider's profile together with the service
// mappings it has opted into.
func (h *ProviderHandler) ProviderDetails(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Users.GetProfileByUserID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no providers found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	services, err := h.Services.ListServicesOfProvider(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "provider details fetched",
		"data":    echo.Map{"provider_details": profile, "services": services},
	})
}
