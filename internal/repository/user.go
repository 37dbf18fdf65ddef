package repository

import (
	"context"
	"errors"
	"fmt"

	"snapfeed/internal/domain"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// DuplicateError reports which unique field an insert collided on, so the
// HTTP layer can answer "username taken" and "email taken" distinctly.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// UserRepository defines persistence operations for User records. Uniqueness
// of username and email is enforced by the store itself on Create; callers
// never check-then-insert.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	SetDisabled(ctx context.Context, username string, disabled bool) error
	Count(ctx context.Context) (int64, error)
}
