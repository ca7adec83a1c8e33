package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/session"
)

const identityKey = "identity"

// Session decodes the session cookie into the request context. A missing or
// corrupt cookie leaves the request anonymous; it never fails the request.
func Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if identity := session.Get(c.Request()); identity != nil {
				c.Set(identityKey, *identity)
			}
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentIdentity(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
			}
			return next(c)
		}
	}
}

// CurrentIdentity returns the session identity injected by Session.
func CurrentIdentity(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(identityKey).(domain.Identity)
	return identity, ok
}
