package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

// UserHandler handles HTTP requests for user administration.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  usersResponse
// @Failure      401  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

// Me handles GET /users/me.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// RoleOf handles GET /users/type/:id.
//
// @Summary      Role of a user
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  roleResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/type/{id} [get]
func (h *UserHandler) RoleOf(c echo.Context) error {
	id := c.Param("id")
	role, err := h.service.RoleOf(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roleResponse{ID: id, Role: role})
}

// Update handles PATCH /users/update/:id. Only the owner may update a profile.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/update/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Title:     req.Title,
		Username:  req.Username,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Delete handles DELETE /users/delete/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Security     CookieAuth
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/delete/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
