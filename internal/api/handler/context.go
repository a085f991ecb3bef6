package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/Elale1984/RoomzIO-API/internal/api/middleware"
	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

// ctxUser returns the identity attached by the session middleware. Routes that
// reach a handler without one are misconfigured, so this fails closed.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}
