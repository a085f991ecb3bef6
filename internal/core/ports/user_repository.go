package ports

import (
	"context"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

// Projection selects which user fields a lookup returns.
type Projection int

const (
	// PublicFields omits every credential field. It is the default.
	PublicFields Projection = iota
	// WithCredentials also loads password hash, salt and session token.
	WithCredentials
)

// SessionStore resolves opaque session tokens. Tokens are stored on the user
// record itself, so a user has at most one live token at a time.
type SessionStore interface {
	// FindBySessionToken returns domain.ErrUserNotFound when no user holds token.
	FindBySessionToken(ctx context.Context, token string) (*domain.User, error)
	// SetSessionToken overwrites the user's token; the previous one stops resolving.
	SetSessionToken(ctx context.Context, userID, token string) error
	// ClearSessionToken removes token from whichever user holds it. Clearing an
	// unknown token is not an error.
	ClearSessionToken(ctx context.Context, token string) error
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	SessionStore

	// Create returns domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string, projection Projection) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
