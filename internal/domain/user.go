package domain

import "time"

// Role is the closed set of roles a user can hold. It is fixed at registration.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEngineer Role = "engineer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleEngineer
}

// User represents an authenticated user.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsManager reports whether the user holds the manager role.
func (u User) IsManager() bool { return u.Role == RoleManager }

// IsEngineer reports whether the user holds the engineer role.
func (u User) IsEngineer() bool { return u.Role == RoleEngineer }

// UserBrief is the public identity embedded in other entities.
type UserBrief struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Role  Role   `json:"role" db:"role"`
}

// Brief returns the public identity of u.
func (u User) Brief() *UserBrief {
	return &UserBrief{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
