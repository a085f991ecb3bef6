// Package memory holds in-process implementations of the storage ports, used
// for local runs without MongoDB and for end-to-end tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

// UserRepository keeps users in a map guarded by a single mutex. Every read
// and write is a copy, so callers never share state with the store.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
	byToken    map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
		byToken:    make(map[string]string),
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func clone(u *domain.User, projection ports.Projection) *domain.User {
	if projection != ports.WithCredentials {
		return u.Public()
	}
	c := *u
	if u.Credentials != nil {
		creds := *u.Credentials
		c.Credentials = &creds
	}
	return &c
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return nil, domain.ErrUserExists
	}

	stored := clone(user, ports.WithCredentials)
	stored.ID = primitive.NewObjectID().Hex()
	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	if stored.Credentials != nil && stored.Credentials.SessionToken != "" {
		r.byToken[stored.Credentials.SessionToken] = stored.ID
	}
	return stored.Public(), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Public(), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string, projection ports.Projection) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(r.byID[id], projection), nil
}

func (r *UserRepository) FindBySessionToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok || token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.byID[id].Public(), nil
}

func (r *UserRepository) List(context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u.Public())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *UserRepository) Update(_ context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	if update.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Title != nil {
		u.Title = *update.Title
	}
	return u.Public(), nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	delete(r.byUsername, u.Username)
	if u.Credentials != nil {
		delete(r.byToken, u.Credentials.SessionToken)
	}
	return nil
}

func (r *UserRepository) SetSessionToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Credentials == nil {
		u.Credentials = &domain.Credentials{}
	}
	delete(r.byToken, u.Credentials.SessionToken)
	u.Credentials.SessionToken = token
	r.byToken[token] = userID
	return nil
}

func (r *UserRepository) ClearSessionToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil
	}
	delete(r.byToken, token)
	if u := r.byID[id]; u != nil && u.Credentials != nil {
		u.Credentials.SessionToken = ""
	}
	return nil
}
