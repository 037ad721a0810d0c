package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is a profile document. Skills and JobInterests are flat fields,
// read by the recommendation orchestrator.
type User struct {
	ID           UserID
	Email        string
	Name         string
	PasswordHash string
	AvatarURL    string
	Role         string
	Skills       []string
	JobInterests []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries partial profile changes. Nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	AvatarURL    *string
	Skills       *[]string
	JobInterests *[]string
}

// UserStore defines profile persistence.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id UserID) (*User, error)
	Update(ctx context.Context, id UserID, update UserUpdate) (*User, error)
}
