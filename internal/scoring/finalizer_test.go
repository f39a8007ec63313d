package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswers struct {
	answers []model.Answer
	err     error
}

func (f *fakeAnswers) ForSession(_ context.Context, userID int64, sessionID uuid.UUID) ([]model.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Answer
	for _, a := range f.answers {
		if a.UserID == userID && a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeResults struct {
	mu      sync.Mutex
	byKey   map[string]*model.Result
	creates int
}

func (f *fakeResults) CreateOrGet(_ context.Context, r *model.Result) (*model.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byKey == nil {
		f.byKey = make(map[string]*model.Result)
	}
	key := r.ExamID.String()
	if existing, ok := f.byKey[key]; ok {
		return existing, nil
	}
	f.creates++
	stored := *r
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	f.byKey[key] = &stored
	return &stored, nil
}

type fakeExams map[uuid.UUID]*model.Exam

func (f fakeExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := f[id]
	if !ok {
		return nil, errors.New("exam not found")
	}
	return e, nil
}

// attempt is the session every answer() belongs to unless a test says otherwise.
var attempt = uuid.New()

func answer(userID int64, examID uuid.UUID, questionID uuid.UUID, selected *string, correct bool) model.Answer {
	return model.Answer{
		ID:             uuid.New(),
		SessionID:      attempt,
		UserID:         userID,
		ExamID:         &examID,
		QuestionID:     questionID,
		SelectedOption: selected,
		IsCorrect:      correct,
	}
}

func strPtr(s string) *string { return &s }

func TestScore(t *testing.T) {
	q1, q2, q3 := uuid.New(), uuid.New(), uuid.New()
	exam := uuid.New()

	tests := []struct {
		name       string
		answers    []model.Answer
		threshold  float64
		total      int
		correct    int
		percentage float64
		passed     bool
	}{
		{
			name:      "no answers",
			threshold: 70,
		},
		{
			name: "all correct",
			answers: []model.Answer{
				answer(1, exam, q1, strPtr("B"), true),
				answer(1, exam, q2, strPtr("A"), true),
			},
			threshold: 70, total: 2, correct: 2, percentage: 100, passed: true,
		},
		{
			name: "answer then timeout",
			answers: []model.Answer{
				answer(1, exam, q1, strPtr("B"), true),
				answer(1, exam, q2, nil, false),
			},
			threshold: 70, total: 2, correct: 1, percentage: 50,
		},
		{
			name: "threshold is inclusive",
			answers: []model.Answer{
				answer(1, exam, q1, strPtr("A"), true),
				answer(1, exam, q2, strPtr("A"), false),
			},
			threshold: 50, total: 2, correct: 1, percentage: 50, passed: true,
		},
		{
			name: "latest attempt wins",
			answers: []model.Answer{
				answer(1, exam, q1, strPtr("C"), false),
				answer(1, exam, q2, strPtr("A"), true),
				answer(1, exam, q1, strPtr("A"), true),
			},
			threshold: 70, total: 2, correct: 2, percentage: 100, passed: true,
		},
		{
			name:    "rounding never lifts a result over the threshold",
			answers: manyAnswers(exam, 13999, 20000),
			threshold: 70, total: 20000, correct: 13999, percentage: 70,
		},
		{
			name: "rounded to two decimals",
			answers: []model.Answer{
				answer(1, exam, q1, strPtr("A"), true),
				answer(1, exam, q2, strPtr("A"), true),
				answer(1, exam, q3, strPtr("A"), false),
			},
			threshold: 70, total: 3, correct: 2, percentage: 66.67,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(tc.answers, tc.threshold)
			assert.Equal(t, tc.total, res.Total)
			assert.Equal(t, tc.correct, res.Correct)
			assert.Equal(t, tc.total-tc.correct, res.Wrong)
			assert.InDelta(t, tc.percentage, res.Percentage, 0.001)
			assert.Equal(t, tc.passed, res.Passed)
			assert.Len(t, res.AnswerIDs, tc.total)
		})
	}
}

func TestFinalize_IsIdempotent(t *testing.T) {
	examID := uuid.New()
	q1, q2 := uuid.New(), uuid.New()
	answers := &fakeAnswers{answers: []model.Answer{
		answer(3, examID, q1, strPtr("B"), true),
		answer(3, examID, q2, strPtr("A"), true),
	}}
	results := &fakeResults{}
	f := NewFinalizer(answers, results, fakeExams{examID: {ID: examID}}, 0, zerolog.Nop())

	first, err := f.Finalize(context.Background(), 3, examID, attempt)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Correct)
	assert.Equal(t, 100.0, first.Percentage)
	assert.True(t, first.Passed)

	// A late answer must not change a stored result.
	answers.answers = append(answers.answers, answer(3, examID, uuid.New(), nil, false))

	second, err := f.Finalize(context.Background(), 3, examID, attempt)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Percentage, second.Percentage)
	assert.Equal(t, 1, results.creates)
}

func TestFinalize_UsesExamThreshold(t *testing.T) {
	examID := uuid.New()
	answers := &fakeAnswers{answers: []model.Answer{
		answer(1, examID, uuid.New(), strPtr("A"), true),
		answer(1, examID, uuid.New(), strPtr("A"), true),
		answer(1, examID, uuid.New(), strPtr("A"), false),
		answer(1, examID, uuid.New(), strPtr("A"), false),
	}}

	strict := NewFinalizer(answers, &fakeResults{}, fakeExams{examID: {ID: examID}}, 0, zerolog.Nop())
	res, err := strict.Finalize(context.Background(), 1, examID, attempt)
	require.NoError(t, err)
	assert.False(t, res.Passed)

	lenient := NewFinalizer(answers, &fakeResults{}, fakeExams{examID: {ID: examID, PassThreshold: 50}}, 0, zerolog.Nop())
	res, err = lenient.Finalize(context.Background(), 1, examID, attempt)
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestFinalize_PropagatesErrors(t *testing.T) {
	examID := uuid.New()

	f := NewFinalizer(&fakeAnswers{}, &fakeResults{}, fakeExams{}, 0, zerolog.Nop())
	_, err := f.Finalize(context.Background(), 1, examID, attempt)
	assert.Error(t, err)

	boom := errors.New("boom")
	f = NewFinalizer(&fakeAnswers{err: boom}, &fakeResults{}, fakeExams{examID: {ID: examID}}, 0, zerolog.Nop())
	_, err = f.Finalize(context.Background(), 1, examID, attempt)
	assert.ErrorIs(t, err, boom)
}

func manyAnswers(examID uuid.UUID, correct, total int) []model.Answer {
	out := make([]model.Answer, 0, total)
	for i := 0; i < total; i++ {
		out = append(out, answer(1, examID, uuid.New(), strPtr("A"), i < correct))
	}
	return out
}

func TestFinalize_CountsOnlyTheFinalizingSession(t *testing.T) {
	examID := uuid.New()
	q1, q2 := uuid.New(), uuid.New()

	replaced := answer(1, examID, q2, strPtr("A"), true)
	replaced.SessionID = uuid.New()
	answers := &fakeAnswers{answers: []model.Answer{
		answer(1, examID, q1, strPtr("B"), false),
		replaced,
	}}

	f := NewFinalizer(answers, &fakeResults{}, fakeExams{examID: {ID: examID}}, 0, zerolog.Nop())
	res, err := f.Finalize(context.Background(), 1, examID, attempt)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Zero(t, res.Correct)
	assert.False(t, res.Passed)
}
