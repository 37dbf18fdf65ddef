package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapfeed/internal/auth"
	"snapfeed/internal/domain"
	"snapfeed/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown username and wrong password.
	// The two are never distinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound means a structurally valid token names a user that no
	// longer exists in the store.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserDisabled means the resolved account is disabled.
	ErrUserDisabled = errors.New("user is disabled")
)

// RegisterInput carries the fields of a registration request. Password is
// hashed immediately and never stored.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

// AuthService owns the credential and token lifecycle: registration, login
// verification, token issuance and per-request token resolution.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	IssueToken(username string) (string, error)
	Resolve(ctx context.Context, tokenString string) (*domain.User, error)
	SetDisabled(ctx context.Context, username string, disabled bool) error
}

type authService struct {
	users    repository.UserRepository
	hasher   *auth.PasswordHasher
	codec    *auth.TokenCodec
	loginTTL time.Duration
}

func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, codec *auth.TokenCodec, loginTTL time.Duration) AuthService {
	if loginTTL <= 0 {
		loginTTL = 30 * time.Minute
	}
	return &authService{
		users:    users,
		hasher:   hasher,
		codec:    codec,
		loginTTL: loginTTL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" {
		return nil, errors.New("username is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}
	if input.Password == "" {
		return nil, errors.New("password is required")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Disabled:     false,
	}

	// uniqueness of username and email is the store's job; a collision
	// surfaces here as a repository.DuplicateError
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *authService) IssueToken(username string) (string, error) {
	token, err := s.codec.Issue(username, s.loginTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *authService) Resolve(ctx context.Context, tokenString string) (*domain.User, error) {
	subject, err := s.codec.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	// the record is fetched fresh on every request; a token outlives
	// neither deletion nor disabling of its subject
	user, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Disabled {
		return nil, ErrUserDisabled
	}

	return user, nil
}

func (s *authService) SetDisabled(ctx context.Context, username string, disabled bool) error {
	return s.users.SetDisabled(ctx, username, disabled)
}
