package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
	"github.com/Elale1984/RoomzIO-API/pkg/credential"
)

// AuthService implements registration, login, logout and session validation.
type AuthService struct {
	repo     ports.UserRepository
	hasher   *credential.Hasher
	throttle ports.LoginThrottle
	audit    ports.AuditSink
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAuthService wires the authenticator. throttle and audit may be nil.
func NewAuthService(
	repo ports.UserRepository,
	hasher *credential.Hasher,
	throttle ports.LoginThrottle,
	audit ports.AuditSink,
	logger zerolog.Logger,
) *AuthService {
	if throttle == nil {
		throttle = noThrottle{}
	}
	if audit == nil {
		audit = discardAudit{}
	}
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		throttle: throttle,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a new account. Only an authenticated admin may create
// another admin.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput, actor *domain.User) (*domain.User, error) {
	return s.register(ctx, in, func() error {
		if in.Role == domain.RoleAdmin && (actor == nil || actor.Role != domain.RoleAdmin) {
			s.record(domain.AuditRegister, domain.OutcomeFailure, nil, in.Username, "admin_requires_admin")
			return domain.ErrForbidden
		}
		return nil
	})
}

// EnsureAdmin registers the bootstrap admin unless the username already
// exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, in ports.RegisterInput) (bool, error) {
	in.Role = domain.RoleAdmin
	if _, err := s.register(ctx, in, nil); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// register validates in, runs authorize when set, then persists the account.
func (s *AuthService) register(ctx context.Context, in ports.RegisterInput, authorize func() error) (*domain.User, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}
	if authorize != nil {
		if err := authorize(); err != nil {
			return nil, err
		}
	}

	// Fast path for the common duplicate; the unique index on username still
	// catches concurrent registrations inside Create.
	_, err := s.repo.FindByUsername(ctx, in.Username, ports.PublicFields)
	switch {
	case err == nil:
		s.record(domain.AuditRegister, domain.OutcomeFailure, nil, in.Username, "username_taken")
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup username: %w", err)
	}

	salt, err := credential.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user := &domain.User{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Username:    in.Username,
		Email:       in.Email,
		Title:       in.Title,
		Role:        in.Role,
		DateCreated: s.now().UTC(),
		Credentials: &domain.Credentials{
			PasswordHash: s.hasher.Hash(salt, in.Password),
			Salt:         salt,
		},
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.record(domain.AuditRegister, domain.OutcomeFailure, nil, in.Username, "username_taken")
			return nil, err
		}
		s.logger.Error().Err(err).Str("username", in.Username).Msg("failed to create user")
		return nil, fmt.Errorf("register: %w", err)
	}

	s.record(domain.AuditRegister, domain.OutcomeSuccess, created, created.Username, "")
	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created.Public(), nil
}

// Login verifies the password and rotates the user's session token. Unknown
// usernames and wrong passwords both yield domain.ErrInvalidCredentials.
// A locked username is refused before the password is checked, so the correct
// password does not lift the lock until the window lapses.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if isBlank(username) || password == "" {
		return "", nil, domain.ErrMissingCredentials
	}

	locked, err := s.throttle.Locked(ctx, username)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
	} else if locked {
		s.record(domain.AuditLogin, domain.OutcomeFailure, nil, username, "locked")
		return "", nil, domain.ErrTooManyAttempts
	}

	user, err := s.repo.FindByUsername(ctx, username, ports.WithCredentials)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.loginFailed(ctx, nil, username, "unknown_user")
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: lookup user: %w", err)
	}

	creds := user.Credentials
	if creds == nil || !s.hasher.Verify(creds.Salt, password, creds.PasswordHash) {
		s.loginFailed(ctx, user, username, "bad_password")
		return "", nil, domain.ErrInvalidCredentials
	}

	salt, err := credential.GenerateSalt()
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	token := s.hasher.Hash(salt, user.ID)

	if err := s.repo.SetSessionToken(ctx, user.ID, token); err != nil {
		return "", nil, fmt.Errorf("login: persist session: %w", err)
	}

	if err := s.throttle.Reset(ctx, username); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to reset login failures")
	}

	s.record(domain.AuditLogin, domain.OutcomeSuccess, user, user.Username, "")
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user.Public(), nil
}

// Logout clears the stored token so it can no longer authenticate.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	user, err := s.repo.FindBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("logout: lookup session: %w", err)
	}

	if err := s.repo.ClearSessionToken(ctx, token); err != nil {
		return fmt.Errorf("logout: clear session: %w", err)
	}

	s.record(domain.AuditLogout, domain.OutcomeSuccess, user, user.Username, "")
	return nil
}

// Authenticate resolves token against the store. Every call reads the store;
// nothing is cached.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.repo.FindBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user.Public(), nil
}

func (s *AuthService) loginFailed(ctx context.Context, user *domain.User, username, reason string) {
	if err := s.throttle.RecordFailure(ctx, username); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record login failure")
	}
	s.record(domain.AuditLogin, domain.OutcomeFailure, user, username, reason)
	s.logger.Info().Str("reason", reason).Msg("login rejected")
}

func (s *AuthService) record(action domain.AuditAction, outcome domain.AuditOutcome, user *domain.User, username, reason string) {
	ev := domain.AuditEvent{
		Action:    action,
		Outcome:   outcome,
		Username:  username,
		Reason:    reason,
		Timestamp: s.now().UTC(),
	}
	if user != nil {
		ev.UserID = user.ID
	}
	s.audit.Record(ev)
}

func validateRegister(in ports.RegisterInput) error {
	if isBlank(in.FirstName) || isBlank(in.LastName) || isBlank(in.Username) ||
		in.Role == "" || isBlank(in.Email) || in.Password == "" {
		return domain.ErrMissingFields
	}
	if !in.Role.Valid() {
		return domain.ErrInvalidRole
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

type noThrottle struct{}

func (noThrottle) Locked(context.Context, string) (bool, error) { return false, nil }
func (noThrottle) RecordFailure(context.Context, string) error  { return nil }
func (noThrottle) Reset(context.Context, string) error          { return nil }

type discardAudit struct{}

func (discardAudit) Record(domain.AuditEvent) {}
