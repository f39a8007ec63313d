package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Option is one labeled choice of a question ("A", "B", "True", ...).
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single catalog question. Read-only to the session engine.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ChapterID     uuid.UUID `json:"chapter_id"`
	Prompt        string    `json:"prompt"`
	Options       []Option  `json:"options"`
	CorrectOption string    `json:"correct_option"`
	OrderNum      int       `json:"order_num"`
}

// View strips the correct option so the question can be sent to a user.
func (q Question) View() QuestionForUser {
	opts := make([]Option, len(q.Options))
	copy(opts, q.Options)
	return QuestionForUser{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: opts,
	}
}

// QuestionForUser is a question without the correct answer.
type QuestionForUser struct {
	ID      uuid.UUID `json:"id"`
	Prompt  string    `json:"prompt"`
	Options []Option  `json:"options"`
}

// DecodeOptions parses the JSONB options column.
func DecodeOptions(raw []byte) ([]Option, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var opts []Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return opts, nil
}

// AddQuestionRequest is the payload used by seed tooling to add a question.
type AddQuestionRequest struct {
	Prompt        string   `json:"prompt" binding:"required,min=1,max=2000"`
	Options       []Option `json:"options" binding:"required,min=2,max=6,dive"`
	CorrectOption string   `json:"correct_option" binding:"required,max=10"`
	OrderNum      int      `json:"order_num" binding:"min=0"`
}
