package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Elale1984/RoomzIO-API/internal/api/metrics"
	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

const userKey = "user"

// SessionResolver resolves a session token to its user.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// CurrentUser returns the identity attached by RequireAuthenticated or
// LoadIdentity.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(userKey).(*domain.User)
	return u, ok && u != nil
}

// SetUser attaches an identity to the request context.
func SetUser(c echo.Context, u *domain.User) {
	c.Set(userKey, u)
}

// SessionToken returns the session token carried by the request cookie.
func SessionToken(c echo.Context, cookieName string) string {
	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}

// RequireAuthenticated resolves the session cookie against the store on every
// request and attaches the identity. Missing and unknown tokens both fail with
// domain.ErrUnauthenticated; store faults surface as-is.
func RequireAuthenticated(resolver SessionResolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c, cookieName)
			if token == "" {
				metrics.SessionRejectionsTotal.WithLabelValues("missing_cookie").Inc()
				return domain.ErrUnauthenticated
			}

			user, err := resolver.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAuthentication) {
					metrics.SessionRejectionsTotal.WithLabelValues("unknown_token").Inc()
				} else {
					metrics.SessionRejectionsTotal.WithLabelValues("store_error").Inc()
				}
				return err
			}

			SetUser(c, user)
			return next(c)
		}
	}
}

// LoadIdentity attaches the identity when the request carries a live session
// and lets anonymous requests through untouched.
func LoadIdentity(resolver SessionResolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c, cookieName)
			if token == "" {
				return next(c)
			}

			user, err := resolver.Authenticate(c.Request().Context(), token)
			switch {
			case err == nil:
				SetUser(c, user)
			case !errors.Is(err, domain.ErrAuthentication):
				return err
			}
			return next(c)
		}
	}
}

// NoStore marks responses as uncacheable; used on everything behind a session.
func NoStore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")
		c.Response().Header().Set("Pragma", "no-cache")
		return next(c)
	}
}

