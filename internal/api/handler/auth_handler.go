package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Elale1984/RoomzIO-API/internal/api/metrics"
	"github.com/Elale1984/RoomzIO-API/internal/api/middleware"
	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register creates a new user account. Creating an admin requires an admin session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor, _ := middleware.CurrentUser(c)
	role := domain.Role(req.Role)

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Title:     req.Title,
		Role:      role,
		Password:  req.Password,
	}, actor)

	roleLabel := string(role)
	if !role.Valid() {
		roleLabel = "invalid"
	}
	metrics.RegistrationsTotal.WithLabelValues(roleLabel, registerResult(err)).Inc()

	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login authenticates a user and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	c.SetCookie(h.cookie.session(token))
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Logout invalidates the current session, if any, and expires the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.SessionToken(c, h.cookie.Name)
	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return err
	}

	c.SetCookie(h.cookie.expired())
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrAuthentication):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrThrottled):
		return "throttled"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_request"
	default:
		return "error"
	}
}

func registerResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrAuthorization):
		return "forbidden"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_request"
	default:
		return "error"
	}
}
