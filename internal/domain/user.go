package domain

import "time"

// User represents a registered account. Username is the primary key and the
// subject every issued token is bound to.
type User struct {
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
