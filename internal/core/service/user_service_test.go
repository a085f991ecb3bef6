package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

func seedUser(t *testing.T, repo *stubUserRepo, username string, role domain.Role) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &domain.User{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Email:     username + "@example.com",
		Role:      role,
		Credentials: &domain.Credentials{
			PasswordHash: "hash",
			Salt:         "salt",
			SessionToken: "token-" + username,
		},
	})
	if err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func TestUserService_ListHidesCredentials(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "alice", domain.RoleAdmin)
	seedUser(t, repo, "bob", domain.RoleStaff)
	svc := NewUserService(repo, nil, zerolog.Nop())

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.Credentials != nil {
			t.Fatalf("credentials leaked for %s", u.Username)
		}
	}
}

func TestUserService_GetAndRoleOf(t *testing.T) {
	repo := newStubUserRepo()
	bob := seedUser(t, repo, "bob", domain.RoleManager)
	svc := NewUserService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	got, err := svc.Get(ctx, bob.ID)
	if err != nil || got.Username != "bob" {
		t.Fatalf("Get: %+v %v", got, err)
	}

	role, err := svc.RoleOf(ctx, bob.ID)
	if err != nil || role != domain.RoleManager {
		t.Fatalf("RoleOf: %s %v", role, err)
	}

	if _, err := svc.RoleOf(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_Update(t *testing.T) {
	repo := newStubUserRepo()
	bob := seedUser(t, repo, "bob", domain.RoleStaff)
	svc := NewUserService(repo, nil, zerolog.Nop())

	updated, err := svc.Update(context.Background(), bob.ID, ports.UpdateUserInput{
		FirstName: strPtr("Robert"),
		Title:     strPtr("Night Auditor"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FirstName != "Robert" || updated.Title != "Night Auditor" || updated.LastName != "User" {
		t.Fatalf("unexpected user after update: %+v", updated)
	}
	if updated.Credentials != nil {
		t.Fatalf("credentials leaked in update response")
	}
}

func TestUserService_UpdateRejectsProtectedFields(t *testing.T) {
	repo := newStubUserRepo()
	bob := seedUser(t, repo, "bob", domain.RoleStaff)
	svc := NewUserService(repo, nil, zerolog.Nop())
	ctx := context.Background()
	writes := repo.writeCount()

	cases := []struct {
		name string
		in   ports.UpdateUserInput
		want error
	}{
		{"username", ports.UpdateUserInput{Username: strPtr("robert")}, domain.ErrUsernameImmutable},
		{"role", ports.UpdateUserInput{Role: strPtr("admin"), FirstName: strPtr("Bob")}, domain.ErrRoleImmutable},
		{"empty", ports.UpdateUserInput{}, domain.ErrEmptyUpdate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(ctx, bob.ID, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation category, got %v", err)
			}
		})
	}

	if repo.writeCount() != writes {
		t.Fatalf("rejected updates must not write")
	}
	role, _ := svc.RoleOf(ctx, bob.ID)
	if role != domain.RoleStaff {
		t.Fatalf("role changed to %s", role)
	}
}

func TestUserService_UpdateMissingUser(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), nil, zerolog.Nop())

	_, err := svc.Update(context.Background(), "missing", ports.UpdateUserInput{FirstName: strPtr("X")})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	repo := newStubUserRepo()
	admin := seedUser(t, repo, "root", domain.RoleAdmin)
	bob := seedUser(t, repo, "bob", domain.RoleStaff)
	audit := &recordingAudit{}
	svc := NewUserService(repo, audit, zerolog.Nop())
	ctx := context.Background()

	if err := svc.Delete(ctx, bob.ID, admin); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, bob.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user to be gone, got %v", err)
	}
	if _, err := repo.FindBySessionToken(ctx, "token-bob"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("deleted user's session must not resolve, got %v", err)
	}

	ev := audit.last()
	if ev.Action != domain.AuditDelete || ev.UserID != bob.ID || ev.Username != "root" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}

	if err := svc.Delete(ctx, bob.ID, admin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("second delete: expected ErrUserNotFound, got %v", err)
	}
}
