package users

import (
	"context"

	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
)

// Repository persists user accounts.
type Repository interface {
	// Create inserts the user and fills in its ID. A taken email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns common.ErrorNotFound when no user has the email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
