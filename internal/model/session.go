package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionMode distinguishes graded exams from ungraded practice.
type SessionMode string

const (
	SessionModeExam     SessionMode = "exam"
	SessionModePractice SessionMode = "practice"
)

// QuestionDelivery is what the messaging layer receives for each turn.
type QuestionDelivery struct {
	SessionID uuid.UUID       `json:"session_id"`
	Mode      SessionMode     `json:"mode"`
	Index     int             `json:"index"`
	Total     int             `json:"total"`
	Question  QuestionForUser `json:"question"`
	// Deadline is set only when the session runs a timer.
	Deadline *time.Time `json:"deadline,omitempty"`
}

// CompletionSummary is the terminal notice of a session. Result is set for
// exam sessions only.
type CompletionSummary struct {
	SessionID uuid.UUID   `json:"session_id"`
	Mode      SessionMode `json:"mode"`
	ExamID    *uuid.UUID  `json:"exam_id,omitempty"`
	Answered  int         `json:"answered"`
	Correct   int         `json:"correct"`
	Abandoned bool        `json:"abandoned"`
	Result    *Result     `json:"result,omitempty"`
}

// StartSessionRequest starts a graded session when ExamID is set, or an
// ungraded one over ChapterID. Exactly one of the two is required.
type StartSessionRequest struct {
	ExamID    string `json:"exam_id" binding:"omitempty,uuid"`
	ChapterID string `json:"chapter_id" binding:"omitempty,uuid"`
	// UseTimer and TimeLimitSeconds only apply to practice; exams carry their own.
	UseTimer         bool `json:"use_timer"`
	TimeLimitSeconds int  `json:"time_limit_seconds" binding:"min=0,max=3600"`
}

// SubmitAnswerRequest answers the question currently in flight.
type SubmitAnswerRequest struct {
	QuestionIndex *int   `json:"question_index" binding:"required,min=0"`
	Option        string `json:"option" binding:"required,option_label"`
}
