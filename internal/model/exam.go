package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is a graded question set drawn from one chapter.
type Exam struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	ChapterID uuid.UUID `json:"chapter_id"`
	// TotalQuestions caps how many chapter questions are asked; 0 means all.
	TotalQuestions int `json:"total_questions"`
	// PassThreshold is a percentage; 0 means use the configured default.
	PassThreshold    float64   `json:"pass_threshold"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	UseTimer         bool      `json:"use_timer"`
	CreatedAt        time.Time `json:"created_at"`
}

// TimeLimit returns the per-question budget, or zero when the exam uses the default.
func (e *Exam) TimeLimit() time.Duration {
	return time.Duration(e.TimeLimitSeconds) * time.Second
}
