package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	ContextActorUID   = "actorUID"
	ContextActorEmail = "actorEmail"
)

// RequireAuth verifies Firebase ID tokens from the Authorization
// header and attaches the actor's UID to the request context. Every
// ledger write records that UID for audit.
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth is not configured")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			decoded, err := authClient.VerifyIDToken(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(ContextActorUID, decoded.UID)
			if email, ok := decoded.Claims["email"].(string); ok {
				c.Set(ContextActorEmail, email)
			}

			return next(c)
		}
	}
}

// ActorUID returns the authenticated actor's UID from the context.
func ActorUID(c echo.Context) string {
	if uid, ok := c.Get(ContextActorUID).(string); ok {
		return uid
	}
	return ""
}
