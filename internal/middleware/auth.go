package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/model"
)

// userContextKey is where Authenticate stores the resolved user. The
// stored value is always a model.User with the password hash blanked.
const userContextKey = "current_user"

// CurrentUser returns the authenticated user attached to the request, or
// false when the request did not pass through Authenticate.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}

// SetCurrentUser attaches u to the request context with the password hash
// stripped. Used by Authenticate and by handler tests.
func SetCurrentUser(c echo.Context, u model.User) {
	c.Set(userContextKey, u.Sanitized())
}

// Authenticate returns middleware that resolves the bearer token into a
// user via the session registry. A missing or malformed Authorization
// header is rejected as "missing bearer token", distinct from the uniform
// "invalid token" used for every verification failure; both deny with 401.
func Authenticate(reg *auth.SessionRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			u, err := reg.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			SetCurrentUser(c, u)
			return next(c)
		}
	}
}

// RequireRole returns middleware that admits only the listed roles. Every
// denial is recorded as an UNAUTHORIZED_ACCESS_ATTEMPT audit entry at
// WARNING severity, carrying the attempted path and the required role set,
// before the 403 is written; a sink failure never blocks the denial.
func RequireRole(sink *auth.Sink, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !allowed[u.Role] {
				ev := auth.Event{
					Action:   model.ActionUnauthorizedAccess,
					IP:       c.RealIP(),
					Severity: model.SeverityWarning,
					Metadata: denialMetadata(c.Path(), roles),
				}
				if ok {
					actor := u
					ev.Actor = &actor
				}
				sink.Record(c.Request().Context(), ev)
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}
			return next(c)
		}
	}
}

func denialMetadata(path string, required []model.Role) string {
	names := make([]string, len(required))
	for i, r := range required {
		names[i] = string(r)
	}
	b, err := json.Marshal(map[string]any{
		"path":           path,
		"required_roles": names,
	})
	if err != nil {
		return ""
	}
	return string(b)
}
