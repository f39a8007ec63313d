package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// state is one live session. mu guards every field below it; sendMu orders
// outbound deliveries so they leave in turn order without holding mu across I/O.
type state struct {
	sendMu sync.Mutex
	mu     sync.Mutex

	id        uuid.UUID
	userID    int64
	questions []model.Question
	cursor    int
	mode      model.SessionMode
	examID    *uuid.UUID
	target    string
	useTimer  bool
	timeLimit time.Duration
	startedAt time.Time

	timer    Handle
	timerGen uint64
	deadline *time.Time

	answered int
	correct  int
	// done is set once the session left the live set. No transition is
	// accepted afterwards.
	done bool
}

func newState(req StartRequest, timeLimit time.Duration, now time.Time) *state {
	qs := make([]model.Question, len(req.Questions))
	copy(qs, req.Questions)
	return &state{
		id:        uuid.New(),
		userID:    req.UserID,
		questions: qs,
		mode:      req.Mode,
		examID:    req.ExamID,
		target:    req.Target,
		useTimer:  req.UseTimer,
		timeLimit: timeLimit,
		startedAt: now,
	}
}

func (s *state) length() int { return len(s.questions) }

func (s *state) complete() bool { return s.cursor == len(s.questions) }

// current returns the question in flight.
func (s *state) current() model.Question {
	if s.cursor < 0 || s.cursor >= len(s.questions) {
		panic(fmt.Sprintf("session %s: cursor %d out of range [0,%d)", s.id, s.cursor, len(s.questions)))
	}
	return s.questions[s.cursor]
}

// advance moves the cursor by one and reports whether the session is complete.
func (s *state) advance(correct bool) bool {
	if s.cursor >= len(s.questions) {
		panic(fmt.Sprintf("session %s: advance past end (cursor %d)", s.id, s.cursor))
	}
	s.cursor++
	s.answered++
	if correct {
		s.correct++
	}
	return s.cursor == len(s.questions)
}

// cancelTimer drops the pending deadline, if any. Bumping the generation
// invalidates a callback that already fired and is waiting on mu.
func (s *state) cancelTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
	s.deadline = nil
}

// setTimer records a freshly armed deadline. Callers cancel the previous
// handle first so at most one deadline is live per session.
func (s *state) setTimer(h Handle, deadline time.Time) {
	s.timer = h
	s.deadline = &deadline
}

func (s *state) delivery() model.QuestionDelivery {
	d := model.QuestionDelivery{
		SessionID: s.id,
		Mode:      s.mode,
		Index:     s.cursor,
		Total:     len(s.questions),
		Question:  s.current().View(),
	}
	if s.deadline != nil {
		dl := *s.deadline
		d.Deadline = &dl
	}
	return d
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		UserID:    s.userID,
		Mode:      s.mode,
		ExamID:    s.examID,
		Cursor:    s.cursor,
		Total:     len(s.questions),
		Answered:  s.answered,
		UseTimer:  s.useTimer,
		StartedAt: s.startedAt,
	}
	if s.deadline != nil {
		dl := *s.deadline
		snap.Deadline = &dl
	}
	if !s.complete() {
		v := s.current().View()
		snap.Question = &v
	}
	return snap
}

func (s *state) event(t EventType, now time.Time) Event {
	return Event{
		Type:          t,
		SessionID:     s.id,
		UserID:        s.userID,
		Mode:          s.mode,
		ExamID:        s.examID,
		QuestionIndex: s.cursor,
		Total:         len(s.questions),
		At:            now,
	}
}

// Snapshot is a read-only copy of a live session.
type Snapshot struct {
	SessionID uuid.UUID         `json:"session_id"`
	UserID    int64             `json:"user_id"`
	Mode      model.SessionMode `json:"mode"`
	ExamID    *uuid.UUID        `json:"exam_id,omitempty"`
	Cursor    int               `json:"cursor"`
	Total     int               `json:"total"`
	Answered  int               `json:"answered"`
	UseTimer  bool              `json:"use_timer"`
	Deadline  *time.Time        `json:"deadline,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	// Question is the question in flight; nil once every question is answered.
	Question *model.QuestionForUser `json:"question,omitempty"`
}
