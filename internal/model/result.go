package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the scored outcome of one exam for one user. Immutable once created.
type Result struct {
	ID         uuid.UUID   `json:"id"`
	UserID     int64       `json:"user_id"`
	ExamID     uuid.UUID   `json:"exam_id"`
	Total      int         `json:"total"`
	Correct    int         `json:"correct"`
	Wrong      int         `json:"wrong"`
	Percentage float64     `json:"percentage"`
	Passed     bool        `json:"passed"`
	AnswerIDs  []uuid.UUID `json:"answer_ids"`
	CreatedAt  time.Time   `json:"created_at"`
}
