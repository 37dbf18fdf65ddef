package domain

import "time"

// Post is a single feed entry owned by the user who created it.
type Post struct {
	ID            string
	Caption       string
	ImageURL      string
	OwnerUsername string
	CreatedAt     time.Time
}
