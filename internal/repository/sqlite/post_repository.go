package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"snapfeed/internal/domain"
	"snapfeed/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	caption TEXT NOT NULL,
	image_url TEXT NOT NULL,
	owner_username TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(owner_username) REFERENCES users(username)
);
CREATE INDEX IF NOT EXISTS idx_posts_owner ON posts(owner_username);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO posts (id, caption, image_url, owner_username, created_at)
VALUES (?, ?, ?, ?, ?)`,
		post.ID,
		post.Caption,
		post.ImageURL,
		post.OwnerUsername,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, caption, image_url, owner_username, created_at
FROM posts
WHERE id = ?`,
		id,
	)
	var post domain.Post
	if err := row.Scan(&post.ID, &post.Caption, &post.ImageURL, &post.OwnerUsername, &post.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) List(ctx context.Context, skip, limit int) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, caption, image_url, owner_username, created_at
FROM posts
ORDER BY created_at DESC
LIMIT ? OFFSET ?`,
		limit,
		skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (r *PostRepository) ListByOwner(ctx context.Context, username string) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, caption, image_url, owner_username, created_at
FROM posts
WHERE owner_username = ?
ORDER BY created_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts by owner: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]domain.Post, error) {
	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(&post.ID, &post.Caption, &post.ImageURL, &post.OwnerUsername, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}
