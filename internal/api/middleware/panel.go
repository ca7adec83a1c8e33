package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/cartelhax/portal/internal/core/domain"
)

// UnlockChecker reports whether a panel capability token is still unlocked.
type UnlockChecker interface {
	IsUnlocked(ctx context.Context, tokenID string) (bool, error)
}

// Panel guards the admin panel routes. The bearer token is the capability
// minted at unlock: its signature must verify, its unlock flag must still
// exist (locking revokes it), and the roles it was minted for must meet the
// admin threshold. The shared secret behind the unlock is an operational
// gate, not per-identity authorization; the rank check is what ties the
// capability to an actual admin session.
func Panel(tokenSecret string, unlocks UnlockChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(tokenSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid panel token")
			}

			tokenID, _ := claims["jti"].(string)
			if tokenID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid panel token")
			}
			unlocked, err := unlocks.IsUnlocked(c.Request().Context(), tokenID)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "panel state unavailable")
			}
			if !unlocked {
				return echo.NewHTTPError(http.StatusUnauthorized, "panel is locked")
			}

			roles := claimRoles(claims)
			if !domain.IsAdmin(roles) {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}

			c.Set("panel_user", claims["username"])
			c.Set("panel_token_id", tokenID)
			return next(c)
		}
	}
}

func claimRoles(claims jwt.MapClaims) []string {
	raw, _ := claims["roles"].([]any)
	roles := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
