// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser is the input for creating a user record. The store assigns the ID
// and timestamps.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// UserRepository defines the port for user persistence operations.
//
// Lookups return (nil, nil) when no user matches. Create returns a
// *ConflictError when the username or email is already taken.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u NewUser) (*User, error)
}
