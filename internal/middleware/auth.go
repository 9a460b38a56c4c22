package middleware // middleware provides reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/session"
	"github.com/iliyamo/service-marketplace-api/internal/utils"
)

// Context keys under which the resolved caller is stored. Handlers read
// them back through CurrentUserID and CurrentRole.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// bearer extracts the raw token from the Authorization header, empty when
// the header is missing or not a Bearer scheme.
func bearer(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// JWTAuth returns middleware that requires a valid Bearer access token.
// Validation goes through the session guard, so beyond signature and expiry
// the token must still be the account's stored access token. The resolved
// account id and role are injected into the request context for handlers
// and downstream middleware.
func JWTAuth(guard *session.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			ident, err := guard.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": authMessage(err)})
			}
			c.Set(ctxUserID, ident.AccountID)
			c.Set(ctxRole, ident.Role)
			return next(c)
		}
	}
}

// OptionalAuth resolves a Bearer token when one is presented but lets
// anonymous requests straight through. A token that fails signature or
// expiry checks also passes as anonymous; only a well-signed token whose
// session is gone (deleted account, superseded pair) is rejected, since
// that caller holds real credentials that are no longer welcome.
func OptionalAuth(guard *session.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c)
			if raw == "" {
				return next(c)
			}
			ident, err := guard.Authenticate(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, session.ErrInvalidUser) || errors.Is(err, session.ErrSessionReplaced) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": authMessage(err)})
				}
				return next(c)
			}
			c.Set(ctxUserID, ident.AccountID)
			c.Set(ctxRole, ident.Role)
			return next(c)
		}
	}
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, utils.ErrTokenNotActive):
		return "token not active yet"
	case errors.Is(err, session.ErrInvalidUser):
		return "invalid user"
	default:
		return "invalid token"
	}
}

// CurrentUserID returns the authenticated account id from context, zero for
// anonymous requests.
func CurrentUserID(c echo.Context) uint64 {
	if v, ok := c.Get(ctxUserID).(uint64); ok {
		return v
	}
	return 0
}

// CurrentRole returns the authenticated role from context, empty for
// anonymous requests.
func CurrentRole(c echo.Context) string {
	if v, ok := c.Get(ctxRole).(string); ok {
		return v
	}
	return ""
}
