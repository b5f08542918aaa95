package models

import (
	"encoding/json"
	"time"
)

// Assessment is a submitted questionnaire owned by one user. Answers and
// Results are stored as JSON text and carried as raw JSON so nested
// structures survive the round trip unchanged.
type Assessment struct {
	ID          int64
	UserID      int64
	ServiceType string
	AgeGroup    string
	Answers     json.RawMessage
	Results     json.RawMessage
	OrderNumber string
	CreatedAt   time.Time
}
