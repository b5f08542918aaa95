// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account identified by a unique email.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is what a successful register, login or token check yields.
// Token is empty when the identity came from verifying an existing token.
type Identity struct {
	UserID int64
	Email  string
	Token  string
}
