package handler

import "github.com/Elale1984/RoomzIO-API/internal/core/domain"

type registerRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Username  string `json:"username"   validate:"max=64"`
	Email     string `json:"email"      validate:"omitempty,email,max=254"`
	Title     string `json:"title"      validate:"max=100"`
	Role      string `json:"role"`
	Password  string `json:"password"   validate:"max=256"`
}

type loginRequest struct {
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"max=256"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
}

type roleResponse struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// updateUserRequest accepts username and role only to reject them.
type updateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name"  validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email"      validate:"omitempty,email,max=254"`
	Title     *string `json:"title"      validate:"omitempty,max=100"`
	Username  *string `json:"username"`
	Role      *string `json:"role"`
}
