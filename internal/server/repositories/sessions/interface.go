package sessions

import (
	"context"

	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
)

// Repository persists bearer-token sessions.
type Repository interface {
	// Create stores a new session for userID.
	Create(ctx context.Context, userID int64, token string) (*models.Session, error)

	// FindUser resolves token to its owning user, or common.ErrorNotFound.
	FindUser(ctx context.Context, token string) (*models.User, error)

	// Delete removes the session; a missing token is not an error.
	Delete(ctx context.Context, token string) error
}
