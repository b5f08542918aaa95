package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tissuesalts/internal/common"
	"github.com/dmitrijs2005/tissuesalts/internal/cryptox"
	"github.com/dmitrijs2005/tissuesalts/internal/dbx"
	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/repomanager"
)

// CredentialService registers accounts and logs them in. Both operations
// hand back a newly opened session.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	hash        func(password string) (string, error)
	verify      func(password, encoded string) (bool, error)
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService) *CredentialService {
	return &CredentialService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		hash:        cryptox.HashPassword,
		verify:      cryptox.VerifyPassword,
	}
}

// Register creates the account and its first session in one transaction.
// A taken email yields common.ErrorAlreadyExists; a blank email or password
// yields common.ErrorValidation.
func (s *CredentialService) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	if email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var identity *models.Identity

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrorAlreadyExists
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		token, err := s.sessions.open(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		identity = &models.Identity{UserID: user.ID, Email: user.Email, Token: token}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return identity, nil
}

// Login checks the password and opens a new session. Existing sessions of
// the user stay valid. Unknown emails and wrong passwords both yield
// common.ErrorUnauthorized.
func (s *CredentialService) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	if email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := s.verify(password, user.PasswordHash)
	if err != nil {
		// an unreadable stored hash can never match
		return nil, common.ErrorUnauthorized
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.sessions.open(ctx, s.db, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.Identity{UserID: user.ID, Email: user.Email, Token: token}, nil
}
