package repository

import (
	"context"
	"errors"

	"inventory-management/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an email is already taken by another user.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines persistence operations for User entities.
// Update receives an already hashed password in UserUpdate.Password.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page, size int) (*domain.UserPage, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
