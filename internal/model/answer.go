package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one append-only ledger entry. A nil SelectedOption records a timeout.
type Answer struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      uuid.UUID  `json:"session_id"`
	UserID         int64      `json:"user_id"`
	ExamID         *uuid.UUID `json:"exam_id,omitempty"`
	QuestionID     uuid.UUID  `json:"question_id"`
	QuestionIndex  int        `json:"question_index"`
	SelectedOption *string    `json:"selected_option"`
	IsCorrect      bool       `json:"is_correct"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TimedOut reports whether the answer was recorded on the user's behalf.
func (a *Answer) TimedOut() bool {
	return a.SelectedOption == nil
}
