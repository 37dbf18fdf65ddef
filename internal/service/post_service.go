package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"snapfeed/internal/domain"
	"snapfeed/internal/repository"
)

const defaultListLimit = 10

// PostService coordinates feed operations backed by the post repository.
type PostService interface {
	CreatePost(ctx context.Context, owner, caption, imageURL string) (*domain.Post, error)
	ListPosts(ctx context.Context, skip, limit int) ([]domain.Post, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.Post, error)
}

type postService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

func (s *postService) CreatePost(ctx context.Context, owner, caption, imageURL string) (*domain.Post, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, errors.New("post owner is required")
	}
	if strings.TrimSpace(caption) == "" {
		return nil, errors.New("caption is required")
	}
	if strings.TrimSpace(imageURL) == "" {
		return nil, errors.New("image url is required")
	}

	post := &domain.Post{
		ID:            uuid.NewString(),
		Caption:       caption,
		ImageURL:      imageURL,
		OwnerUsername: owner,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) ListPosts(ctx context.Context, skip, limit int) ([]domain.Post, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.posts.List(ctx, skip, limit)
}

func (s *postService) ListByOwner(ctx context.Context, owner string) ([]domain.Post, error) {
	return s.posts.ListByOwner(ctx, owner)
}
