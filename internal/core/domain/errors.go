package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of them, so
// transport layers can map outcomes with errors.Is on the category alone.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("access forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrThrottled      = errors.New("too many attempts")
)

var (
	ErrMissingCredentials = fmt.Errorf("%w: username and password are required", ErrValidation)
	ErrMissingFields      = fmt.Errorf("%w: first_name, last_name, username, role, email and password are required", ErrValidation)
	ErrInvalidRole        = fmt.Errorf("%w: role must be one of admin, manager, staff", ErrValidation)
	ErrUsernameImmutable  = fmt.Errorf("%w: username cannot be changed", ErrValidation)
	ErrRoleImmutable      = fmt.Errorf("%w: role cannot be changed through a profile update", ErrValidation)
	ErrEmptyUpdate        = fmt.Errorf("%w: no updatable fields supplied", ErrValidation)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrUnauthenticated    = fmt.Errorf("%w: missing or invalid session", ErrAuthentication)

	ErrForbidden = fmt.Errorf("%w: insufficient privileges", ErrAuthorization)

	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	ErrUserExists = fmt.Errorf("%w: username already taken", ErrConflict)

	ErrTooManyAttempts = fmt.Errorf("%w: login temporarily locked", ErrThrottled)
)
