package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tissuesalts/internal/common"
	"github.com/dmitrijs2005/tissuesalts/internal/dbx"
	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/repomanager"
)

// SessionService issues, resolves and revokes bearer-token sessions.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	newToken    func() (string, error)
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		newToken:    generateSessionToken,
	}
}

func generateSessionToken() (string, error) {
	return common.MakeRandURLSafeString(common.SessionTokenSize)
}

// CreateToken returns a fresh opaque token. It is not persisted.
func (s *SessionService) CreateToken() (string, error) {
	return s.newToken()
}

// open persists a new session for userID through db, which may be a
// transaction, and returns its token.
func (s *SessionService) open(ctx context.Context, db dbx.DBTX, userID int64) (string, error) {
	token, err := s.CreateToken()
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	if _, err := s.repomanager.Sessions(db).Create(ctx, userID, token); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	return token, nil
}

// Verify resolves token to the owning user. Unknown or empty tokens yield
// common.ErrorUnauthorized.
func (s *SessionService) Verify(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Sessions(s.db).FindUser(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error verifying session: %w", err)
	}

	return &models.Identity{UserID: user.ID, Email: user.Email}, nil
}

// Destroy deletes the session. Unknown tokens are ignored.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}
