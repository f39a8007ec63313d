package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// EventType enumerates session lifecycle events.
type EventType string

const (
	EventStarted   EventType = "session_started"
	EventAnswered  EventType = "question_answered"
	EventTimedOut  EventType = "question_timed_out"
	EventCompleted EventType = "session_completed"
	EventAbandoned EventType = "session_abandoned"
	EventReplaced  EventType = "session_replaced"
)

// Event describes one transition of a live session.
type Event struct {
	Type          EventType         `json:"type"`
	SessionID     uuid.UUID         `json:"session_id"`
	UserID        int64             `json:"user_id"`
	Mode          model.SessionMode `json:"mode"`
	ExamID        *uuid.UUID        `json:"exam_id,omitempty"`
	QuestionIndex int               `json:"question_index"`
	Total         int               `json:"total"`
	Correct       *bool             `json:"correct,omitempty"`
	Result        *model.Result     `json:"result,omitempty"`
	At            time.Time         `json:"at"`
}
