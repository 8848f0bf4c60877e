package models

import "time"

// TokenResponse is returned by signup and login
type TokenResponse struct {
	Success   bool   `json:"success"`
	AuthToken string `json:"authtoken"` // JWT token
}

// UserProfile is the public view of a user; it never carries the password hash
type UserProfile struct {
	ID        string    `json:"id"` // UUID
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"date"`
}

// MessageResponse is a generic success body
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
