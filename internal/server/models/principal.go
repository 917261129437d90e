package models

import "time"

// Professor owns classes and their documents.
type Professor struct {
	ID             int64
	Name           string
	PasswordDigest string
	CreatedAt      time.Time
}

// Admin runs administrative operations across all professors.
type Admin struct {
	ID             int64
	Name           string
	PasswordDigest string
	CreatedAt      time.Time
}
