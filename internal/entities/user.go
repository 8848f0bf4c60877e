package entities

import "time"

// User represents a registered account in the database
type User struct {
	ID           string    `json:"id"` // UUID
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Don't expose password hash in JSON
	CreatedAt    time.Time `json:"date"`
	UpdatedAt    time.Time `json:"-"`
}
