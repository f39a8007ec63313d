package websocket

import (
	"github.com/stemsi/exstem-quiz/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionResume Action = "resume"
	ActionPing   Action = "ping"
)

// RequestPayload is the single client message shape; fields not used by an
// action are ignored.
type RequestPayload struct {
	Action        Action `json:"action"`
	QuestionIndex *int   `json:"question_index,omitempty"`
	Option        string `json:"option,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventQuestion  Event = "question"
	EventCompleted Event = "completed"
	EventAck       Event = "ack"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

type QuestionEvent struct {
	Event Event                  `json:"event"`
	Data  model.QuestionDelivery `json:"data"`
}

type CompletedEvent struct {
	Event Event                   `json:"event"`
	Data  model.CompletionSummary `json:"data"`
}

// AckResponse confirms an answer was recorded.
type AckResponse struct {
	Event         Event `json:"event"`
	QuestionIndex int   `json:"question_index"`
	Correct       bool  `json:"correct"`
	Completed     bool  `json:"completed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
