package assessments

import (
	"context"

	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
)

// Repository persists submitted assessments.
type Repository interface {
	// Create inserts the assessment and fills in its ID.
	Create(ctx context.Context, a *models.Assessment) (*models.Assessment, error)

	// ListByUser returns the user's assessments, newest first.
	ListByUser(ctx context.Context, userID int64) ([]models.Assessment, error)
}
