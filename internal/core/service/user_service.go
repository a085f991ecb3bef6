package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

type UserService struct {
	repo   ports.UserRepository
	audit  ports.AuditSink
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, audit ports.AuditSink, logger zerolog.Logger) *UserService {
	if audit == nil {
		audit = discardAudit{}
	}
	return &UserService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// RoleOf returns the role held by the user with the given id.
func (s *UserService) RoleOf(ctx context.Context, id string) (domain.Role, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// Update applies a profile change. Usernames are permanent and roles can only
// change through administration, never through a self-service update.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	if in.Username != nil {
		return nil, domain.ErrUsernameImmutable
	}
	if in.Role != nil {
		return nil, domain.ErrRoleImmutable
	}

	update := domain.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Title:     in.Title,
	}
	if update.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Msg("user updated")
	return updated.Public(), nil
}

// Delete removes the user record. Any session the user held dies with it.
func (s *UserService) Delete(ctx context.Context, id string, actor *domain.User) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	ev := domain.AuditEvent{
		Action:    domain.AuditDelete,
		Outcome:   domain.OutcomeSuccess,
		UserID:    id,
		Timestamp: s.now().UTC(),
	}
	if actor != nil {
		ev.Username = actor.Username
		ev.Reason = "deleted_by:" + actor.ID
	}
	s.audit.Record(ev)

	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
