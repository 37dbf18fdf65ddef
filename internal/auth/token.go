package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every token verification failure: bad signature,
// wrong algorithm, expired, malformed, missing subject. Callers must not be
// able to tell the causes apart.
var ErrInvalidToken = errors.New("invalid token")

// TokenCodec issues and verifies HS256 bearer tokens bound to a subject
// username. The signing secret and default TTL are fixed at construction.
type TokenCodec struct {
	secret     []byte
	defaultTTL time.Duration
}

func NewTokenCodec(secret []byte, defaultTTL time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	return &TokenCodec{
		secret:     secret,
		defaultTTL: defaultTTL,
	}, nil
}

// Issue signs a token for subject expiring ttl from now. A non-positive ttl
// falls back to the codec default.
func (c *TokenCodec) Issue(subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, algorithm and expiry, and returns the subject.
// Every failure comes back as ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
