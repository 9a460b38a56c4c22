package handler

import (
	"context"  // context with cancellation for store calls
	"errors"   // sentinel error matching
	"net/http" // HTTP status codes
	"strings"  // input normalization
	"time"     // timeouts and ttl math

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/config"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
	"github.com/iliyamo/service-marketplace-api/internal/session"
	"github.com/iliyamo/service-marketplace-api/internal/utils"
)

// AuthHandler bundles dependencies for the auth and user-directory endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Guard *session.Guard
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, guard *session.Guard, users *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Guard: guard, Users: users}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Age      uint32 `json:"age"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
	Location struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"location"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

// Register creates the account row and its profile in one call. The
// username is the email address.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleProvider && role != model.RoleAdmin {
		role = model.RoleConsumer
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	digest, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	uid, err := h.Users.CreateAccount(ctx, req.Email, digest, role)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Clients key off 209 for already-present entities.
			return c.JSON(209, echo.Map{"status": false, "message": "User Already Present", "data": nil})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	profile := model.Profile{
		UserID:    uid,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Age:       req.Age,
		Gender:    req.Gender,
		Address:   req.Address,
		Latitude:  req.Location.Latitude,
		Longitude: req.Location.Longitude,
	}
	if err := h.Users.CreateProfile(ctx, &profile); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create profile failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"status":  true,
		"message": "Registered successfully",
		"data":    echo.Map{"id": uid, "username": req.Email, "role": role},
	})
}

// Login verifies credentials and returns a fresh token pair. The pair
// becomes the account's only valid one; any previous session dies here.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Guard.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Logged In",
		"data": echo.Map{
			"id":      sess.AccountID,
			"role":    sess.Role,
			"access":  sess.Access,
			"refresh": sess.Refresh,
		},
	})
}

// Refresh exchanges a refresh token for a new access token, rotating the
// refresh token only inside the 24h window. The route runs under optional
// auth, so an attached identity must match the token's subject.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Guard.Refresh(ctx, strings.TrimSpace(req.Refresh), middleware.CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSubjectMismatch):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token subject mismatch"})
		case errors.Is(err, session.ErrInvalidUser):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid user"})
		case errors.Is(err, session.ErrSessionReplaced):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		case errors.Is(err, utils.ErrTokenExpired), errors.Is(err, utils.ErrTokenInvalid), errors.Is(err, utils.ErrTokenNotActive):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
		}
	}

	accessTTL := time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	return c.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Token refreshed",
		"data": echo.Map{
			"id":             res.AccountID,
			"role":           res.Role,
			"access":         res.Access,
			"refresh":        res.Refresh,
			"refreshRotated": res.Rotated,
			"expiresIn": echo.Map{
				"access":  utils.FormatRemaining(accessTTL),
				"refresh": res.RefreshRemaining,
			},
		},
	})
}

// Logout blanks the stored pair for the authenticated account.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.Logout(ctx, middleware.CurrentUserID(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "logged out", "data": nil})
}

// Me echoes the resolved caller, mostly useful for smoke tests.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": middleware.CurrentUserID(c),
		"role":    middleware.CurrentRole(c),
	})
}

// UserDetails returns a user's profile by id.
func (h *AuthHandler) UserDetails(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not given in params"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Users.GetProfileByUserID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no user details found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "user details fetched", "data": profile})
}

// ListProviders returns every provider profile (admin only).
func (h *AuthHandler) ListProviders(c echo.Context) error {
	return h.listByRole(c, model.RoleProvider, "Providers fetched")
}

// ListConsumers returns every consumer profile (admin only).
func (h *AuthHandler) ListConsumers(c echo.Context) error {
	return h.listByRole(c, model.RoleConsumer, "Consumers fetched")
}

func (h *AuthHandler) listByRole(c echo.Context, role, message string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profiles, err := h.Users.ListProfilesByRole(ctx, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": message, "data": profiles})
}
