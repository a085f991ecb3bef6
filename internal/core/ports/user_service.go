package ports

import (
	"context"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

// UpdateUserInput mirrors a profile PATCH body. Username and Role are only
// present so that attempts to change them can be rejected.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Title     *string
	Username  *string
	Role      *string
}

// UserService defines user administration use cases.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	RoleOf(ctx context.Context, id string) (domain.Role, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string, actor *domain.User) error
}
