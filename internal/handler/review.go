package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
	"github.com/iliyamo/service-marketplace-api/internal/review"
)

// ReviewHandler exposes the review gate over HTTP.
type ReviewHandler struct {
	Gate *review.Gate
}

func NewReviewHandler(gate *review.Gate) *ReviewHandler {
	return &ReviewHandler{Gate: gate}
}

type createReviewReq struct {
	ProviderID uint64  `json:"providerId"`
	ServiceID  uint64  `json:"serviceId"`
	Rating     float64 `json:"rating"`
	Comment    string  `json:"comment"`
}

// Create files a review for the authenticated consumer. The gate's
// rejections all come back as 209 with the gate's message, matching what
// clients already parse.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProviderID == 0 || req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "providerId/serviceId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rev, err := h.Gate.Create(ctx, middleware.CurrentUserID(c), req.ProviderID, req.ServiceID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrDuplicate):
			return c.JSON(209, echo.Map{"status": false, "message": "Review already present", "data": nil})
		case errors.Is(err, review.ErrNotAllowed):
			return c.JSON(209, echo.Map{"status": false, "message": "Review not allowed", "data": nil})
		case errors.Is(err, review.ErrDeadlinePending):
			return c.JSON(209, echo.Map{"status": false, "message": "Wait till deadline", "data": nil})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "provider service not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": true, "message": "Review Added", "data": rev})
}

// Get fetches a single review.
func (h *ReviewHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rev, err := h.Gate.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no reviews found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Review data fetched", "data": rev})
}

// ListForConsumer returns the reviews a consumer has written.
func (h *ReviewHandler) ListForConsumer(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	revs, err := h.Gate.ListForConsumer(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Review List fetched", "data": revs})
}

// ListForProvider returns the reviews a provider has received.
func (h *ReviewHandler) ListForProvider(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	revs, err := h.Gate.ListForProvider(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Review List fetched", "data": revs})
}

// Delete removes a review and echoes the deleted row. Ratings are not
// rolled back.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rev, err := h.Gate.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no reviews found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "Review deleted", "data": rev})
}
