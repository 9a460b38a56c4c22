package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/booking"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/queue"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
	queue_publisher "github.com/iliyamo/service-marketplace-api/internal/service"
)

// AppointmentHandler exposes the booking engine over HTTP.
type AppointmentHandler struct {
	Engine *booking.Engine
}

func NewAppointmentHandler(engine *booking.Engine) *AppointmentHandler {
	return &AppointmentHandler{Engine: engine}
}

type createAppointmentReq struct {
	ServiceID     uint64 `json:"serviceId"`
	ProviderID    uint64 `json:"providerId"`
	Description   string `json:"description"`
	PreferredDate string `json:"preferredDate"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

type updateDateReq struct {
	Date string `json:"date"`
}

// parseDate accepts the two datetime shapes clients send.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Create books a new appointment for the authenticated consumer. A
// successful booking emits an appointment_requested event; publish
// failures never block the request.
func (h *AppointmentHandler) Create(c echo.Context) error {
	var req createAppointmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ServiceID == 0 || req.ProviderID == 0 || req.PreferredDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "serviceId/providerId/preferredDate required"})
	}
	preferred, ok := parseDate(req.PreferredDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid preferredDate"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Engine.Create(ctx, middleware.CurrentUserID(c), req.ProviderID, req.ServiceID, req.Description, preferred)
	if err != nil {
		if errors.Is(err, booking.ErrDuplicate) {
			// Clients key off 209 for already-present entities.
			return c.JSON(209, echo.Map{"status": false, "message": "Appointment already present for given service", "data": nil})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create appointment failed"})
	}

	go func(a model.Appointment) {
		_ = queue_publisher.PublishAppointmentRequested(context.Background(), queue.AppointmentRequestedEvent{
			AppointmentID: a.ID,
			ConsumerID:    a.ConsumerID,
			ProviderID:    a.ProviderID,
			ServiceID:     a.ServiceID,
			Description:   a.Description,
			PreferredDate: a.PreferredDate.Format(time.RFC3339),
			Deadline:      a.Deadline.Format(time.RFC3339),
			RequestedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}(appt)

	return c.JSON(http.StatusCreated, echo.Map{"status": true, "message": "Appointment Scheduled", "data": appt})
}

// ListForProvider returns a provider's appointments, expiring stale ones.
func (h *AppointmentHandler) ListForProvider(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appts, err := h.Engine.ListForProvider(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Appointment List fetched", "data": appts})
}

// ListForConsumer returns a consumer's appointments, expiring stale ones.
func (h *AppointmentHandler) ListForConsumer(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appts, err := h.Engine.ListForConsumer(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Appointments List fetched", "data": appts})
}

// Get fetches one appointment, applying lazy expiry.
func (h *AppointmentHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Engine.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no appointments found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Appointment data fetched", "data": appt})
}

// UpdateStatus sets an appointment's status and emits a status-changed
// event carrying the old and new values.
func (h *AppointmentHandler) UpdateStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "'status' not given in body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case model.StatusRequested, model.StatusApproved, model.StatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	before, err := h.Engine.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no appointments found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	appt, err := h.Engine.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no appointments found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if before.Status != appt.Status {
		go func(old string, a model.Appointment) {
			_ = queue_publisher.PublishAppointmentStatusChanged(context.Background(), queue.AppointmentStatusChangedEvent{
				AppointmentID: a.ID,
				ConsumerID:    a.ConsumerID,
				ProviderID:    a.ProviderID,
				OldStatus:     old,
				NewStatus:     a.Status,
				ChangedAt:     time.Now().UTC().Format(time.RFC3339),
			})
		}(before.Status, appt)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Appointment updated successful", "data": appt})
}

// UpdateDate moves an appointment's preferred date; the deadline stays as
// computed at booking time.
func (h *AppointmentHandler) UpdateDate(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}
	var req updateDateReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Date) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "'date' not given in body"})
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Engine.UpdateDate(ctx, id, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no appointments found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Appointment updated", "data": appt})
}

// Delete removes an appointment and echoes the deleted row.
func (h *AppointmentHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Engine.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no appointments found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Appointment Deleted", "data": appt})
}
