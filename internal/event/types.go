package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// EventType is an AMQP routing key.
type EventType string

const (
	EventTypeResultFinalized EventType = "quiz.result.finalized"
)

// ResultFinalizedEvent is published once per stored exam result.
type ResultFinalizedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   EventType `json:"event_type"`
	ResultID    uuid.UUID `json:"result_id"`
	SessionID   uuid.UUID `json:"session_id"`
	UserID      int64     `json:"user_id"`
	ExamID      uuid.UUID `json:"exam_id"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// NewResultFinalizedEvent builds the event for a stored result.
func NewResultFinalizedEvent(sessionID uuid.UUID, r *model.Result) *ResultFinalizedEvent {
	return &ResultFinalizedEvent{
		EventID:     uuid.NewString(),
		EventType:   EventTypeResultFinalized,
		ResultID:    r.ID,
		SessionID:   sessionID,
		UserID:      r.UserID,
		ExamID:      r.ExamID,
		Total:       r.Total,
		Correct:     r.Correct,
		Percentage:  r.Percentage,
		Passed:      r.Passed,
		FinalizedAt: time.Now().UTC(),
	}
}
