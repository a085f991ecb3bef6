package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User // keyed by id
	nextID int
	writes int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.Credentials != nil {
		creds := *u.Credentials
		clone.Credentials = &creds
	}
	return &clone
}

func (r *stubUserRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *stubUserRepo) byUsername(username string) *domain.User {
	for _, u := range r.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUsername(user.Username) != nil {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = "u" + strconv.Itoa(r.nextID)
	r.users[stored.ID] = stored
	r.writes++
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Public(), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string, projection ports.Projection) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byUsername(username)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	if projection == ports.WithCredentials {
		return cloneUser(u), nil
	}
	return u.Public(), nil
}

func (r *stubUserRepo) List(context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
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
	r.writes++
	return u.Public(), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	r.writes++
	return nil
}

func (r *stubUserRepo) FindBySessionToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Credentials != nil && u.Credentials.SessionToken == token {
			return u.Public(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SetSessionToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Credentials == nil {
		u.Credentials = &domain.Credentials{}
	}
	u.Credentials.SessionToken = token
	r.writes++
	return nil
}

func (r *stubUserRepo) ClearSessionToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Credentials != nil && u.Credentials.SessionToken == token {
			u.Credentials.SessionToken = ""
			r.writes++
		}
	}
	return nil
}

// storedToken peeks at the persisted token for assertions.
func (r *stubUserRepo) storedToken(username string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byUsername(username)
	if u == nil || u.Credentials == nil {
		return ""
	}
	return u.Credentials.SessionToken
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAudit) Record(ev domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAudit) last() domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return domain.AuditEvent{}
	}
	return a.events[len(a.events)-1]
}

type stubThrottle struct {
	failures map[string]int
	max      int
	err      error
}

func newStubThrottle(max int) *stubThrottle {
	return &stubThrottle{failures: make(map[string]int), max: max}
}

func (t *stubThrottle) Locked(_ context.Context, username string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.failures[username] >= t.max, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, username string) error {
	t.failures[username]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, username string) error {
	delete(t.failures, username)
	return nil
}
