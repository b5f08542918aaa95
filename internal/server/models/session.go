package models

import "time"

// Session binds an opaque bearer token to one user until it is deleted.
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
}
