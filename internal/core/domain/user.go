package domain

import "time"

// Role is the closed set of access tiers a user can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// ManagerOrAdmin is the role group allowed to run facility management operations.
var ManagerOrAdmin = []Role{RoleManager, RoleAdmin}

// Credentials holds the write-only authentication material of a user. It is
// only populated when a repository is explicitly asked for it.
type Credentials struct {
	PasswordHash string
	Salt         string
	SessionToken string
}

// User models an authenticated actor of a facility organization.
type User struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Title          string     `json:"title,omitempty"`
	Role           Role       `json:"role"`
	DateCreated    time.Time  `json:"date_created"`
	DateTerminated *time.Time `json:"date_terminated"`

	Credentials *Credentials `json:"-"`
}

// Public returns a copy of u without credential material.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Credentials = nil
	return &clone
}

// UserUpdate carries the profile fields a user may change on their own record.
// Nil fields are left untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Title     *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.Title == nil
}
