package repository

import (
	"context"

	"snapfeed/internal/domain"
)

// PostRepository defines persistence operations for feed posts.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) error
	Get(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context, skip, limit int) ([]domain.Post, error)
	ListByOwner(ctx context.Context, username string) ([]domain.Post, error)
}
