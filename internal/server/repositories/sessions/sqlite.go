// Package sessions stores bearer-token sessions in SQLite.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tissuesalts/internal/common"
	"github.com/dmitrijs2005/tissuesalts/internal/dbx"
	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, userID int64, token string) (*models.Session, error) {
	query := `INSERT INTO sessions (user_id, token) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &models.Session{ID: id, UserID: userID, Token: token}, nil
}

func (r *SQLiteRepository) FindUser(ctx context.Context, token string) (*models.User, error) {
	query :=
		`SELECT u.id, u.email
		 FROM sessions s
		 JOIN users u ON s.user_id = u.id
		 WHERE s.token = ?`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&user.ID, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
