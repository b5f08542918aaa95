// Package assessments stores assessment submissions in SQLite.
package assessments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/tissuesalts/internal/dbx"
	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Assessment) (*models.Assessment, error) {

	query :=
		`INSERT INTO assessments
		 (user_id, service_type, age_group, answers, results, order_number)
		 VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		a.UserID, a.ServiceType, a.AgeGroup, string(a.Answers), string(a.Results), a.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.ID = id
	return a, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID int64) ([]models.Assessment, error) {

	query :=
		`SELECT id, user_id, service_type, age_group, answers, results, order_number, ` + dbx.TimestampColumn("created_at") + `
		 FROM assessments
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Assessment{}

	for rows.Next() {
		var (
			item             models.Assessment
			answers, results string
			createdAt        string
		)
		err := rows.Scan(&item.ID, &item.UserID, &item.ServiceType, &item.AgeGroup,
			&answers, &results, &item.OrderNumber, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		if !json.Valid([]byte(answers)) || !json.Valid([]byte(results)) {
			return nil, fmt.Errorf("assessment %d: stored payload is not valid JSON", item.ID)
		}
		item.Answers = json.RawMessage(answers)
		item.Results = json.RawMessage(results)

		if item.CreatedAt, err = dbx.ParseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("assessment %d: bad created_at %q: %w", item.ID, createdAt, err)
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
