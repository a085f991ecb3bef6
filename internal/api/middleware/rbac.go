package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Elale1984/RoomzIO-API/internal/api/metrics"
	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

// RequireRole allows only users holding exactly role.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return roleGuard("role", role)
}

// RequireAnyRole allows users holding any of the given roles.
func RequireAnyRole(roles ...domain.Role) echo.MiddlewareFunc {
	return roleGuard("any_role", roles...)
}

func roleGuard(guard string, roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if _, ok := allowed[user.Role]; !ok {
				metrics.AuthorizationDenialsTotal.WithLabelValues(guard).Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireOwner allows the request only when the path parameter equals the
// caller's id. It fails closed when no identity is attached.
func RequireOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok || user.ID == "" || c.Param(param) != user.ID {
				metrics.AuthorizationDenialsTotal.WithLabelValues("owner").Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
