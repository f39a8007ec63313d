package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// timeoutTurnBudget bounds the I/O of a turn started by a timer, which has no caller context.
const timeoutTurnBudget = 10 * time.Second

// StartRequest describes a session to create.
type StartRequest struct {
	UserID    int64
	Questions []model.Question
	Mode      model.SessionMode
	ExamID    *uuid.UUID
	// Target is the opaque delivery address understood by the Messenger.
	Target   string
	UseTimer bool
	// TimeLimit overrides the engine default when positive.
	TimeLimit time.Duration
}

// Outcome reports the effect of one answer.
type Outcome struct {
	SessionID     uuid.UUID     `json:"session_id"`
	QuestionIndex int           `json:"question_index"`
	Correct       bool          `json:"correct"`
	TimedOut      bool          `json:"timed_out"`
	Completed     bool          `json:"completed"`
	Next          int           `json:"next"`
	Result        *model.Result `json:"result,omitempty"`
	// Question is the next question when the session goes on.
	Question *model.QuestionForUser `json:"question,omitempty"`
	Deadline *time.Time             `json:"deadline,omitempty"`
}

// Deps are the collaborators of an Engine. Timers and Observer are optional.
type Deps struct {
	Ledger    AnswerLedger
	Finalizer Finalizer
	Messenger Messenger
	Timers    Scheduler
	Observer  Observer
}

// Engine drives every live session. It is the only owner of session state:
// the keyed store below is never handed out, only copies of it.
type Engine struct {
	mu       sync.RWMutex
	sessions map[int64]*state

	ledger    AnswerLedger
	finalizer Finalizer
	messenger Messenger
	timers    Scheduler
	observer  Observer

	timeLimit time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewEngine creates an Engine. timeLimit is the default per-question budget.
func NewEngine(deps Deps, timeLimit time.Duration, log zerolog.Logger) *Engine {
	if deps.Timers == nil {
		deps.Timers = NewTimerCoordinator()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if timeLimit <= 0 {
		timeLimit = 30 * time.Second
	}
	return &Engine{
		sessions:  make(map[int64]*state),
		ledger:    deps.Ledger,
		finalizer: deps.Finalizer,
		messenger: deps.Messenger,
		timers:    deps.Timers,
		observer:  deps.Observer,
		timeLimit: timeLimit,
		now:       time.Now,
		log:       log.With().Str("component", "session_engine").Logger(),
	}
}

// turn is the outbound work of one transition. It runs after mu is released.
type turn struct {
	question   *model.QuestionDelivery
	completion *model.CompletionSummary
	events     []Event
	outcome    *Outcome
}

// Start creates a session for req.UserID and delivers its first question.
// A live session of the same user is retired first: its timer is cancelled
// before the new session becomes visible to answers.
func (e *Engine) Start(ctx context.Context, req StartRequest) (Snapshot, error) {
	if len(req.Questions) == 0 {
		return Snapshot{}, ErrEmptyQuestionSet
	}
	if req.Mode == "" {
		req.Mode = model.SessionModePractice
	}
	switch req.Mode {
	case model.SessionModeExam:
		if req.ExamID == nil {
			return Snapshot{}, ErrExamRequired
		}
		if e.finalizer == nil {
			return Snapshot{}, errors.New("exam mode requires a finalizer")
		}
	case model.SessionModePractice:
		req.ExamID = nil
	default:
		return Snapshot{}, fmt.Errorf("unknown session mode %q", req.Mode)
	}

	limit := req.TimeLimit
	if limit <= 0 {
		limit = e.timeLimit
	}
	now := e.now()
	st := newState(req, limit, now)

	st.mu.Lock()
	e.mu.Lock()
	prev := e.sessions[req.UserID]
	e.sessions[req.UserID] = st
	e.mu.Unlock()

	t := &turn{}
	if prev != nil {
		prev.mu.Lock()
		prev.cancelTimer()
		prev.done = true
		t.events = append(t.events, prev.event(EventReplaced, now))
		prev.mu.Unlock()

		e.log.Warn().
			Int64("user_id", req.UserID).
			Str("previous_session", prev.id.String()).
			Msg("Live session replaced by a new start")
	}

	if st.useTimer {
		e.armLocked(st)
	}
	d := st.delivery()
	t.question = &d
	t.events = append(t.events, st.event(EventStarted, now))
	snap := st.snapshot()

	e.log.Info().
		Int64("user_id", st.userID).
		Str("session_id", st.id.String()).
		Str("mode", string(st.mode)).
		Int("questions", st.length()).
		Bool("use_timer", st.useTimer).
		Msg("Session started")

	st.sendMu.Lock()
	st.mu.Unlock()
	defer st.sendMu.Unlock()
	return snap, e.dispatch(ctx, st, t)
}

// SubmitAnswer records option as the answer to the question at questionIndex.
// The pending timer is cancelled before the answer is appended, so a late
// deadline can never record a second answer for the same question.
func (e *Engine) SubmitAnswer(ctx context.Context, userID int64, questionIndex int, option string) (*Outcome, error) {
	st := e.lookup(userID)
	if st == nil {
		return nil, ErrNoActiveSession
	}

	st.mu.Lock()
	if st.done || st.complete() || questionIndex != st.cursor {
		st.mu.Unlock()
		return nil, ErrStaleInteraction
	}
	st.cancelTimer()

	selected := option
	t, err := e.resolve(ctx, st, &selected)
	if err != nil {
		st.mu.Unlock()
		return nil, err
	}

	st.sendMu.Lock()
	st.mu.Unlock()
	defer st.sendMu.Unlock()
	return t.outcome, e.dispatch(ctx, st, t)
}

// handleTimeout is the timer callback. It only acts when the session is still
// live, the deadline is still the current one and the cursor still points at
// the question the deadline was armed for.
func (e *Engine) handleTimeout(st *state, gen uint64, questionIndex int) {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutTurnBudget)
	defer cancel()

	st.mu.Lock()
	if st.done || st.timerGen != gen || st.complete() || st.cursor != questionIndex {
		st.mu.Unlock()
		e.log.Debug().
			Int64("user_id", st.userID).
			Int("question_index", questionIndex).
			Msg("Stale deadline dropped")
		return
	}
	st.cancelTimer()

	t, err := e.resolve(ctx, st, nil)
	if err != nil {
		st.mu.Unlock()
		e.log.Error().Err(err).
			Int64("user_id", st.userID).
			Int("question_index", questionIndex).
			Msg("Timeout turn failed")
		return
	}

	st.sendMu.Lock()
	st.mu.Unlock()
	defer st.sendMu.Unlock()
	_ = e.dispatch(ctx, st, t)
}

// resolve appends the answer for the question in flight, advances the cursor
// and either prepares the next question or finalizes. Caller holds st.mu and
// has already cancelled the pending deadline.
func (e *Engine) resolve(ctx context.Context, st *state, selected *string) (*turn, error) {
	q := st.current()
	index := st.cursor
	correct := selected != nil && *selected == q.CorrectOption

	ans := &model.Answer{
		SessionID:      st.id,
		UserID:         st.userID,
		ExamID:         st.examID,
		QuestionID:     q.ID,
		QuestionIndex:  index,
		SelectedOption: selected,
		IsCorrect:      correct,
	}
	if err := e.ledger.Append(ctx, ans); err != nil {
		// Same question stays in flight; give it a fresh deadline.
		if st.useTimer {
			e.armLocked(st)
		}
		return nil, &PersistenceError{Op: "append answer", Err: err}
	}

	now := e.now()
	evType := EventAnswered
	if selected == nil {
		evType = EventTimedOut
	}
	ev := st.event(evType, now)
	ev.Correct = &correct

	out := &Outcome{
		SessionID:     st.id,
		QuestionIndex: index,
		Correct:       correct,
		TimedOut:      selected == nil,
	}
	t := &turn{outcome: out, events: []Event{ev}}

	if !st.advance(correct) {
		if st.useTimer {
			e.armLocked(st)
		}
		d := st.delivery()
		t.question = &d
		out.Next = st.cursor
		out.Question = &d.Question
		out.Deadline = d.Deadline
		return t, nil
	}

	out.Completed = true
	out.Next = st.cursor
	summary := model.CompletionSummary{
		SessionID: st.id,
		Mode:      st.mode,
		ExamID:    st.examID,
		Answered:  st.answered,
		Correct:   st.correct,
	}
	if st.mode == model.SessionModeExam {
		res, err := e.finalizer.Finalize(ctx, st.userID, *st.examID, st.id)
		if err != nil {
			// The answer is stored and the cursor sits at the end, so no
			// further answer is accepted. The session stays live until
			// Abandon retries the finalization or a new Start replaces it.
			return nil, &PersistenceError{Op: "finalize result", Err: err}
		}
		summary.Result = res
		out.Result = res
	}
	e.retireLocked(st)

	done := st.event(EventCompleted, now)
	done.Result = summary.Result
	t.events = append(t.events, done)
	t.completion = &summary

	e.log.Info().
		Int64("user_id", st.userID).
		Str("session_id", st.id.String()).
		Int("answered", st.answered).
		Int("correct", st.correct).
		Msg("Session completed")
	return t, nil
}

// Abandon ends a live session early. Exam sessions are finalized over the
// answers recorded so far.
func (e *Engine) Abandon(ctx context.Context, userID int64) (*model.CompletionSummary, error) {
	st := e.lookup(userID)
	if st == nil {
		return nil, ErrNoActiveSession
	}

	st.mu.Lock()
	if st.done {
		st.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	st.cancelTimer()

	summary := model.CompletionSummary{
		SessionID: st.id,
		Mode:      st.mode,
		ExamID:    st.examID,
		Answered:  st.answered,
		Correct:   st.correct,
		Abandoned: !st.complete(),
	}
	if st.mode == model.SessionModeExam {
		res, err := e.finalizer.Finalize(ctx, st.userID, *st.examID, st.id)
		if err != nil {
			if st.useTimer && !st.complete() {
				e.armLocked(st)
			}
			st.mu.Unlock()
			return nil, &PersistenceError{Op: "finalize result", Err: err}
		}
		summary.Result = res
	}
	e.retireLocked(st)

	evType := EventAbandoned
	if !summary.Abandoned {
		evType = EventCompleted
	}
	ev := st.event(evType, e.now())
	ev.Result = summary.Result
	t := &turn{completion: &summary, events: []Event{ev}}

	e.log.Info().
		Int64("user_id", st.userID).
		Str("session_id", st.id.String()).
		Int("answered", st.answered).
		Msg("Session abandoned")

	st.sendMu.Lock()
	st.mu.Unlock()
	defer st.sendMu.Unlock()
	return &summary, e.dispatch(ctx, st, t)
}

// Redeliver sends the question in flight again, e.g. after a reconnect or a
// failed delivery. It never goes back to an earlier question.
func (e *Engine) Redeliver(ctx context.Context, userID int64) error {
	st := e.lookup(userID)
	if st == nil {
		return ErrNoActiveSession
	}

	st.mu.Lock()
	if st.done || st.complete() {
		st.mu.Unlock()
		return ErrStaleInteraction
	}
	d := st.delivery()

	st.sendMu.Lock()
	st.mu.Unlock()
	defer st.sendMu.Unlock()
	return e.dispatch(ctx, st, &turn{question: &d})
}

// Snapshot returns a copy of the user's live session.
func (e *Engine) Snapshot(userID int64) (Snapshot, error) {
	st := e.lookup(userID)
	if st == nil {
		return Snapshot{}, ErrNoActiveSession
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.done {
		return Snapshot{}, ErrNoActiveSession
	}
	return st.snapshot(), nil
}

// ActiveSessions returns the number of live sessions.
func (e *Engine) ActiveSessions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// Shutdown cancels every pending deadline and drops all live sessions.
func (e *Engine) Shutdown() int {
	e.mu.Lock()
	live := e.sessions
	e.sessions = make(map[int64]*state)
	e.mu.Unlock()

	for _, st := range live {
		st.mu.Lock()
		st.cancelTimer()
		st.done = true
		st.mu.Unlock()
	}

	e.log.Info().Int("sessions", len(live)).Msg("Session engine stopped")
	return len(live)
}

func (e *Engine) lookup(userID int64) *state {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessions[userID]
}

// armLocked cancels the pending deadline and arms one for the question at
// the cursor. Caller holds st.mu.
func (e *Engine) armLocked(st *state) {
	st.cancelTimer()
	gen := st.timerGen
	h := e.timers.Arm(st.timeLimit, st.cursor, func(questionIndex int) {
		e.handleTimeout(st, gen, questionIndex)
	})
	st.setTimer(h, e.now().Add(st.timeLimit))
}

// retireLocked removes st from the live set. Caller holds st.mu.
func (e *Engine) retireLocked(st *state) {
	st.cancelTimer()
	st.done = true

	e.mu.Lock()
	if cur, ok := e.sessions[st.userID]; ok && cur == st {
		delete(e.sessions, st.userID)
	}
	e.mu.Unlock()
}

// dispatch performs the outbound work of a turn. Caller holds st.sendMu only.
func (e *Engine) dispatch(ctx context.Context, st *state, t *turn) error {
	var err error
	if t.question != nil {
		if derr := e.messenger.DeliverQuestion(ctx, st.target, *t.question); derr != nil {
			err = &DeliveryError{Stage: "question", Err: derr}
		}
	}
	if t.completion != nil {
		if derr := e.messenger.DeliverCompletion(ctx, st.target, *t.completion); derr != nil {
			err = &DeliveryError{Stage: "completion", Err: derr}
		}
	}
	for _, ev := range t.events {
		e.observer.Notify(ctx, ev)
	}

	if err != nil {
		e.log.Error().Err(err).
			Int64("user_id", st.userID).
			Str("session_id", st.id.String()).
			Msg("Delivery failed")
	}
	return err
}
