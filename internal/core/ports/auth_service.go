package ports

import (
	"context"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Title     string
	Role      domain.Role
	Password  string
}

// AuthService issues and validates sessions.
type AuthService interface {
	// Register creates an account. actor is the authenticated caller, or nil
	// for anonymous sign-up.
	Register(ctx context.Context, input RegisterInput, actor *domain.User) (*domain.User, error)
	// Login returns a fresh session token and the public view of the user.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	// Logout invalidates token if it is live. It never fails for unknown tokens.
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a session token to its user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
