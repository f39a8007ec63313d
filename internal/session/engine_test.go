package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── fakes ─────────────────────────────────────────────────────────────

type memLedger struct {
	mu      sync.Mutex
	answers []model.Answer
	seen    map[string]bool
	failN   int
}

func newMemLedger() *memLedger {
	return &memLedger{seen: make(map[string]bool)}
}

func (l *memLedger) Append(_ context.Context, a *model.Answer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failN > 0 {
		l.failN--
		return errors.New("connection reset")
	}
	key := fmt.Sprintf("%s/%s", a.SessionID, a.QuestionID)
	if l.seen[key] {
		return fmt.Errorf("duplicate answer for %s", key)
	}
	l.seen[key] = true
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	l.answers = append(l.answers, *a)
	return nil
}

func (l *memLedger) all() []model.Answer {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Answer, len(l.answers))
	copy(out, l.answers)
	return out
}

func (l *memLedger) failNext(n int) {
	l.mu.Lock()
	l.failN = n
	l.mu.Unlock()
}

type memFinalizer struct {
	ledger *memLedger
	calls  atomic.Int32

	mu  sync.Mutex
	err error
}

func (f *memFinalizer) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *memFinalizer) Finalize(_ context.Context, userID int64, examID, sessionID uuid.UUID) (*model.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	res := &model.Result{ID: uuid.New(), UserID: userID, ExamID: examID}
	for _, a := range f.ledger.all() {
		if a.UserID != userID || a.SessionID != sessionID || a.ExamID == nil || *a.ExamID != examID {
			continue
		}
		res.Total++
		if a.IsCorrect {
			res.Correct++
		} else {
			res.Wrong++
		}
		res.AnswerIDs = append(res.AnswerIDs, a.ID)
	}
	if res.Total > 0 {
		res.Percentage = float64(res.Correct) * 100 / float64(res.Total)
	}
	res.Passed = res.Percentage >= 70
	return res, nil
}

type recordingMessenger struct {
	mu          sync.Mutex
	questions   []model.QuestionDelivery
	completions []model.CompletionSummary
	fail        atomic.Bool
}

func (m *recordingMessenger) DeliverQuestion(_ context.Context, _ string, q model.QuestionDelivery) error {
	m.mu.Lock()
	m.questions = append(m.questions, q)
	m.mu.Unlock()
	if m.fail.Load() {
		return errors.New("target offline")
	}
	return nil
}

func (m *recordingMessenger) DeliverCompletion(_ context.Context, _ string, s model.CompletionSummary) error {
	m.mu.Lock()
	m.completions = append(m.completions, s)
	m.mu.Unlock()
	if m.fail.Load() {
		return errors.New("target offline")
	}
	return nil
}

func (m *recordingMessenger) questionIndexes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.questions))
	for _, q := range m.questions {
		out = append(out, q.Index)
	}
	return out
}

func (m *recordingMessenger) completionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.completions)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *recordingObserver) Notify(_ context.Context, ev Event) {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()
}

func (o *recordingObserver) types() []EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventType, 0, len(o.events))
	for _, ev := range o.events {
		out = append(out, ev.Type)
	}
	return out
}

// manualTimers never fires on its own; tests fire handles explicitly,
// including cancelled ones, to model a callback that already left the runtime.
type manualTimers struct {
	mu      sync.Mutex
	handles []*manualHandle
}

type manualHandle struct {
	index     int
	fire      func(int)
	cancelled atomic.Bool
}

func (h *manualHandle) Cancel()            { h.cancelled.Store(true) }
func (h *manualHandle) QuestionIndex() int { return h.index }
func (h *manualHandle) trigger()           { h.fire(h.index) }

func (m *manualTimers) Arm(_ time.Duration, questionIndex int, fire func(int)) Handle {
	h := &manualHandle{index: questionIndex, fire: fire}
	m.mu.Lock()
	m.handles = append(m.handles, h)
	m.mu.Unlock()
	return h
}

func (m *manualTimers) all() []*manualHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*manualHandle, len(m.handles))
	copy(out, m.handles)
	return out
}

func (m *manualTimers) live() []*manualHandle {
	var out []*manualHandle
	for _, h := range m.all() {
		if !h.cancelled.Load() {
			out = append(out, h)
		}
	}
	return out
}

func (m *manualTimers) last() *manualHandle {
	all := m.all()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

type harness struct {
	engine    *Engine
	ledger    *memLedger
	finalizer *memFinalizer
	messenger *recordingMessenger
	timers    *manualTimers
	observer  *recordingObserver
}

func newHarness() *harness {
	ledger := newMemLedger()
	h := &harness{
		ledger:    ledger,
		finalizer: &memFinalizer{ledger: ledger},
		messenger: &recordingMessenger{},
		timers:    &manualTimers{},
		observer:  &recordingObserver{},
	}
	h.engine = NewEngine(Deps{
		Ledger:    h.ledger,
		Finalizer: h.finalizer,
		Messenger: h.messenger,
		Timers:    h.timers,
		Observer:  h.observer,
	}, 30*time.Second, zerolog.Nop())
	return h
}

func questions(n int) []model.Question {
	chapter := uuid.New()
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:        uuid.New(),
			ChapterID: chapter,
			Prompt:    fmt.Sprintf("question %d", i+1),
			Options: []model.Option{
				{Label: "a", Text: "first"},
				{Label: "b", Text: "second"},
			},
			CorrectOption: "a",
			OrderNum:      i + 1,
		}
	}
	return out
}

func examRequest(userID int64, n int, timer bool) StartRequest {
	examID := uuid.New()
	return StartRequest{
		UserID:    userID,
		Questions: questions(n),
		Mode:      model.SessionModeExam,
		ExamID:    &examID,
		Target:    fmt.Sprintf("user:%d", userID),
		UseTimer:  timer,
	}
}

func practiceRequest(userID int64, n int, timer bool) StartRequest {
	return StartRequest{
		UserID:    userID,
		Questions: questions(n),
		Mode:      model.SessionModePractice,
		Target:    fmt.Sprintf("user:%d", userID),
		UseTimer:  timer,
	}
}

// ── start ─────────────────────────────────────────────────────────────

func TestStart_DeliversFirstQuestion(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	snap, err := h.engine.Start(ctx, practiceRequest(1, 3, true))
	require.NoError(t, err)

	assert.Equal(t, 0, snap.Cursor)
	assert.Equal(t, 3, snap.Total)
	assert.NotNil(t, snap.Deadline)
	assert.Equal(t, []int{0}, h.messenger.questionIndexes())
	assert.NotNil(t, h.messenger.questions[0].Deadline)
	assert.Len(t, h.timers.live(), 1)
	assert.Equal(t, 1, h.engine.ActiveSessions())
	assert.Equal(t, []EventType{EventStarted}, h.observer.types())
}

func TestStart_RejectsInvalidRequests(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 0, false))
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)

	req := examRequest(1, 2, false)
	req.ExamID = nil
	_, err = h.engine.Start(ctx, req)
	assert.ErrorIs(t, err, ErrExamRequired)

	req = practiceRequest(1, 2, false)
	req.Mode = "tournament"
	_, err = h.engine.Start(ctx, req)
	assert.Error(t, err)

	assert.Zero(t, h.engine.ActiveSessions())
}

func TestStart_CopiesQuestionSet(t *testing.T) {
	h := newHarness()
	req := practiceRequest(1, 2, false)
	_, err := h.engine.Start(context.Background(), req)
	require.NoError(t, err)

	req.Questions[0].CorrectOption = "b"

	out, err := h.engine.SubmitAnswer(context.Background(), 1, 0, "a")
	require.NoError(t, err)
	assert.True(t, out.Correct)
}

func TestStart_ReplacesLiveSessionAndRetiresItsTimer(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first, err := h.engine.Start(ctx, practiceRequest(1, 3, true))
	require.NoError(t, err)
	oldTimer := h.timers.last()

	second, err := h.engine.Start(ctx, practiceRequest(1, 2, true))
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.True(t, oldTimer.cancelled.Load())

	// A deadline of the retired session that already fired must not touch the new one.
	oldTimer.trigger()
	assert.Empty(t, h.ledger.all())

	snap, err := h.engine.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, second.SessionID, snap.SessionID)
	assert.Equal(t, 0, snap.Cursor)
	assert.Equal(t, 1, h.engine.ActiveSessions())
	assert.Contains(t, h.observer.types(), EventReplaced)
}

// ── answers ───────────────────────────────────────────────────────────

func TestSubmitAnswer_ExamRunsToCompletion(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	req := examRequest(7, 3, false)

	_, err := h.engine.Start(ctx, req)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := h.engine.SubmitAnswer(ctx, 7, i, "a")
		require.NoError(t, err)
		assert.True(t, out.Correct)
		assert.False(t, out.Completed)
		assert.Equal(t, i+1, out.Next)
	}

	out, err := h.engine.SubmitAnswer(ctx, 7, 2, "b")
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.True(t, out.Completed)
	require.NotNil(t, out.Result)
	assert.Equal(t, 3, out.Result.Total)
	assert.Equal(t, 2, out.Result.Correct)
	assert.InDelta(t, 66.66, out.Result.Percentage, 0.01)
	assert.False(t, out.Result.Passed)

	assert.Equal(t, []int{0, 1, 2}, h.messenger.questionIndexes())
	require.Equal(t, 1, h.messenger.completionCount())
	assert.Equal(t, out.Result, h.messenger.completions[0].Result)
	assert.Equal(t, int32(1), h.finalizer.calls.Load())
	assert.Len(t, h.ledger.all(), 3)
	assert.Zero(t, h.engine.ActiveSessions())

	_, err = h.engine.SubmitAnswer(ctx, 7, 3, "a")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSubmitAnswer_SingleQuestionSession(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, examRequest(1, 1, true))
	require.NoError(t, err)

	out, err := h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.True(t, out.Result.Passed)
	assert.Empty(t, h.timers.live())
	assert.Equal(t, []int{0}, h.messenger.questionIndexes())
	assert.Equal(t, 1, h.messenger.completionCount())
}

func TestSubmitAnswer_PracticeCompletesWithoutResult(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 2, false))
	require.NoError(t, err)
	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)
	out, err := h.engine.SubmitAnswer(ctx, 1, 1, "a")
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Nil(t, out.Result)
	assert.Zero(t, h.finalizer.calls.Load())
	require.Equal(t, 1, h.messenger.completionCount())
	assert.Equal(t, 2, h.messenger.completions[0].Correct)
}

func TestSubmitAnswer_StaleIndex(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 3, false))
	require.NoError(t, err)

	_, err = h.engine.SubmitAnswer(ctx, 1, 1, "a")
	assert.ErrorIs(t, err, ErrStaleInteraction)

	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)
	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	assert.ErrorIs(t, err, ErrStaleInteraction)

	assert.Len(t, h.ledger.all(), 1)
}

func TestSubmitAnswer_NoSession(t *testing.T) {
	h := newHarness()
	_, err := h.engine.SubmitAnswer(context.Background(), 99, 0, "a")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

// ── timers ────────────────────────────────────────────────────────────

func TestTimeout_RecordsEmptyAnswerAndAdvances(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 2, true))
	require.NoError(t, err)

	h.timers.last().trigger()

	answers := h.ledger.all()
	require.Len(t, answers, 1)
	assert.True(t, answers[0].TimedOut())
	assert.False(t, answers[0].IsCorrect)
	assert.Equal(t, []int{0, 1}, h.messenger.questionIndexes())

	next := h.timers.live()
	require.Len(t, next, 1)
	assert.Equal(t, 1, next[0].QuestionIndex())

	out, err := h.engine.SubmitAnswer(ctx, 1, 1, "a")
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.Contains(t, h.observer.types(), EventTimedOut)
}

func TestTimeout_AfterManualAnswerIsDropped(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 3, true))
	require.NoError(t, err)
	first := h.timers.last()

	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)
	assert.True(t, first.cancelled.Load())

	first.trigger()

	answers := h.ledger.all()
	require.Len(t, answers, 1)
	assert.False(t, answers[0].TimedOut())

	snap, err := h.engine.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Cursor)
}

func TestTimeout_RacesManualAnswer(t *testing.T) {
	for i := 0; i < 50; i++ {
		h := newHarness()
		ctx := context.Background()

		_, err := h.engine.Start(ctx, practiceRequest(1, 2, true))
		require.NoError(t, err)
		timer := h.timers.last()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = h.engine.SubmitAnswer(ctx, 1, 0, "a")
		}()
		go func() {
			defer wg.Done()
			timer.trigger()
		}()
		wg.Wait()

		var forFirst int
		for _, a := range h.ledger.all() {
			if a.QuestionIndex == 0 {
				forFirst++
			}
		}
		require.Equal(t, 1, forFirst, "iteration %d", i)

		snap, err := h.engine.Snapshot(1)
		require.NoError(t, err)
		assert.Equal(t, 1, snap.Cursor)
	}
}

func TestTimeout_ExamCompletesAndFinalizes(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, examRequest(1, 2, true))
	require.NoError(t, err)

	h.timers.last().trigger()
	h.timers.last().trigger()

	require.Equal(t, 1, h.messenger.completionCount())
	res := h.messenger.completions[0].Result
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Wrong)
	assert.Zero(t, h.engine.ActiveSessions())
	assert.Empty(t, h.timers.live())
}

// ── failures ──────────────────────────────────────────────────────────

func TestSubmitAnswer_PersistenceFailureKeepsCursor(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 2, true))
	require.NoError(t, err)
	h.ledger.failNext(1)

	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.Error(t, err)
	assert.True(t, IsPersistence(err))

	snap, err := h.engine.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Cursor)

	live := h.timers.live()
	require.Len(t, live, 1)
	assert.Equal(t, 0, live[0].QuestionIndex())

	out, err := h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Next)
}

func TestSubmitAnswer_DeliveryFailureKeepsAdvance(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 3, false))
	require.NoError(t, err)
	h.messenger.fail.Store(true)

	out, err := h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.Error(t, err)
	assert.True(t, IsDelivery(err))
	require.NotNil(t, out)
	assert.Equal(t, 1, out.Next)
	assert.Len(t, h.ledger.all(), 1)

	h.messenger.fail.Store(false)
	require.NoError(t, h.engine.Redeliver(ctx, 1))
	assert.Equal(t, []int{0, 1, 1}, h.messenger.questionIndexes())
}

func TestSubmitAnswer_FinalizeFailureThenAbandonRetries(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, examRequest(1, 1, false))
	require.NoError(t, err)
	h.finalizer.setErr(errors.New("db down"))

	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.Error(t, err)
	assert.True(t, IsPersistence(err))
	assert.Equal(t, 1, h.engine.ActiveSessions())

	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	assert.ErrorIs(t, err, ErrStaleInteraction)

	h.finalizer.setErr(nil)
	summary, err := h.engine.Abandon(ctx, 1)
	require.NoError(t, err)
	assert.False(t, summary.Abandoned)
	require.NotNil(t, summary.Result)
	assert.Equal(t, 1, summary.Result.Correct)
	assert.Zero(t, h.engine.ActiveSessions())
	assert.Len(t, h.ledger.all(), 1)
}

// ── lifecycle ─────────────────────────────────────────────────────────

func TestAbandon_PracticeMidway(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, practiceRequest(1, 3, true))
	require.NoError(t, err)
	_, err = h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)

	summary, err := h.engine.Abandon(ctx, 1)
	require.NoError(t, err)
	assert.True(t, summary.Abandoned)
	assert.Equal(t, 1, summary.Answered)
	assert.Nil(t, summary.Result)
	assert.Empty(t, h.timers.live())
	assert.Zero(t, h.engine.ActiveSessions())
	assert.Contains(t, h.observer.types(), EventAbandoned)

	_, err = h.engine.Abandon(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestAbandon_ExamMidwayStoresPartialResult(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.engine.Start(ctx, examRequest(2, 3, true))
	require.NoError(t, err)
	_, err = h.engine.SubmitAnswer(ctx, 2, 0, "a")
	require.NoError(t, err)

	summary, err := h.engine.Abandon(ctx, 2)
	require.NoError(t, err)
	assert.True(t, summary.Abandoned)
	assert.Equal(t, 1, summary.Answered)
	require.NotNil(t, summary.Result)
	assert.Equal(t, 1, summary.Result.Total)
	assert.Equal(t, 1, summary.Result.Correct)
	assert.Equal(t, int32(1), h.finalizer.calls.Load())
	assert.Empty(t, h.timers.live())
	assert.Zero(t, h.engine.ActiveSessions())

	h.observer.mu.Lock()
	last := h.observer.events[len(h.observer.events)-1]
	h.observer.mu.Unlock()
	assert.Equal(t, EventAbandoned, last.Type)
	assert.Equal(t, summary.Result, last.Result)
}

func TestAbandon_ExamIgnoresAnswersOfReplacedSession(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	req := examRequest(3, 2, false)
	_, err := h.engine.Start(ctx, req)
	require.NoError(t, err)
	_, err = h.engine.SubmitAnswer(ctx, 3, 0, "a")
	require.NoError(t, err)

	// Restarting the same exam replaces the first attempt.
	_, err = h.engine.Start(ctx, req)
	require.NoError(t, err)

	summary, err := h.engine.Abandon(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, summary.Result)
	assert.Zero(t, summary.Result.Total)
	assert.False(t, summary.Result.Passed)
}

func TestRedeliver_WithoutSession(t *testing.T) {
	h := newHarness()
	assert.ErrorIs(t, h.engine.Redeliver(context.Background(), 1), ErrNoActiveSession)
}

func TestShutdown_CancelsAllTimers(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	for u := int64(1); u <= 3; u++ {
		_, err := h.engine.Start(ctx, practiceRequest(u, 2, true))
		require.NoError(t, err)
	}
	assert.Len(t, h.timers.live(), 3)

	assert.Equal(t, 3, h.engine.Shutdown())
	assert.Empty(t, h.timers.live())
	assert.Zero(t, h.engine.ActiveSessions())

	for _, timer := range h.timers.all() {
		timer.trigger()
	}
	assert.Empty(t, h.ledger.all())
}

func TestEngine_ConcurrentUsersAreIsolated(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	const users = 20

	var wg sync.WaitGroup
	for u := int64(1); u <= users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := h.engine.Start(ctx, examRequest(userID, 3, false))
			assert.NoError(t, err)
			for i := 0; i < 3; i++ {
				_, err := h.engine.SubmitAnswer(ctx, userID, i, "a")
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	assert.Len(t, h.ledger.all(), users*3)
	assert.Equal(t, users, h.messenger.completionCount())
	assert.Zero(t, h.engine.ActiveSessions())
}

// ── timer coordinator ─────────────────────────────────────────────────

func TestTimerCoordinator_FiresAndCancels(t *testing.T) {
	c := NewTimerCoordinator()

	var fired atomic.Int32
	h := c.Arm(5*time.Millisecond, 4, func(idx int) {
		if idx == 4 {
			fired.Add(1)
		}
	})
	assert.Equal(t, 4, h.QuestionIndex())
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	h.Cancel()

	cancelled := c.Arm(time.Hour, 0, func(int) { fired.Add(1) })
	cancelled.Cancel()
	cancelled.Cancel()

	armed, firedCount := c.Stats()
	assert.Equal(t, int64(2), armed)
	assert.Equal(t, int64(1), firedCount)
}

func TestScenario_AnswerThenTimeoutFailsExam(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	req := examRequest(5, 2, true)
	req.Questions[0].CorrectOption = "b"
	_, err := h.engine.Start(ctx, req)
	require.NoError(t, err)

	_, err = h.engine.SubmitAnswer(ctx, 5, 0, "b")
	require.NoError(t, err)
	h.timers.last().trigger()

	answers := h.ledger.all()
	require.Len(t, answers, 2)
	assert.Nil(t, answers[1].SelectedOption)
	assert.False(t, answers[1].IsCorrect)

	require.Equal(t, 1, h.messenger.completionCount())
	res := h.messenger.completions[0].Result
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 1, res.Wrong)
	assert.Equal(t, 50.0, res.Percentage)
	assert.False(t, res.Passed)
}

func TestOutcome_CarriesNextQuestion(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	req := practiceRequest(1, 2, true)

	snap, err := h.engine.Start(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, snap.Question)
	assert.Equal(t, req.Questions[0].ID, snap.Question.ID)

	out, err := h.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)
	require.NotNil(t, out.Question)
	assert.Equal(t, req.Questions[1].ID, out.Question.ID)
	assert.NotNil(t, out.Deadline)

	out, err = h.engine.SubmitAnswer(ctx, 1, 1, "a")
	require.NoError(t, err)
	assert.Nil(t, out.Question)
}
