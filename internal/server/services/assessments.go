package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/tissuesalts/internal/common"

	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/repomanager"
)

// AssessmentInput is a submission as received from the client. The scalar
// fields are stored as given.
type AssessmentInput struct {
	ServiceType string
	AgeGroup    string
	Answers     json.RawMessage
	Results     json.RawMessage
	OrderNumber string
}

// AssessmentService stores and lists assessments for the owner of a token.
type AssessmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
}

func NewAssessmentService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService) *AssessmentService {
	return &AssessmentService{db: db, repomanager: m, sessions: sessions}
}

// Save stores in for the token's owner and returns the new assessment ID.
func (s *AssessmentService) Save(ctx context.Context, token string, in AssessmentInput) (int64, error) {
	identity, err := s.sessions.Verify(ctx, token)
	if err != nil {
		return 0, err
	}

	answers, err := normalizePayload(in.Answers)
	if err != nil {
		return 0, err
	}
	results, err := normalizePayload(in.Results)
	if err != nil {
		return 0, err
	}

	a, err := s.repomanager.Assessments(s.db).Create(ctx, &models.Assessment{
		UserID:      identity.UserID,
		ServiceType: in.ServiceType,
		AgeGroup:    in.AgeGroup,
		Answers:     answers,
		Results:     results,
		OrderNumber: in.OrderNumber,
	})
	if err != nil {
		return 0, fmt.Errorf("error saving assessment: %w", err)
	}

	return a.ID, nil
}

// ListForToken returns the token owner's assessments, newest first.
func (s *AssessmentService) ListForToken(ctx context.Context, token string) ([]models.Assessment, error) {
	identity, err := s.sessions.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Assessments(s.db).ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing assessments: %w", err)
	}

	return list, nil
}

// normalizePayload compacts raw JSON; an absent payload becomes null.
func normalizePayload(raw json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return buf.Bytes(), nil
}
