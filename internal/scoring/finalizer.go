// Package scoring turns the answer ledger of an exam into a Result.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// DefaultPassThreshold is used when neither the exam nor the config sets one.
const DefaultPassThreshold = 70.0

// AnswerSource lists the answers of one session ordered by creation time.
type AnswerSource interface {
	ForSession(ctx context.Context, userID int64, sessionID uuid.UUID) ([]model.Answer, error)
}

// ResultStore persists results, returning the existing row for a (user, exam)
// pair that already has one.
type ResultStore interface {
	CreateOrGet(ctx context.Context, r *model.Result) (*model.Result, error)
}

// ExamLookup fetches exam metadata.
type ExamLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// Finalizer computes and stores exam results.
type Finalizer struct {
	answers   AnswerSource
	results   ResultStore
	exams     ExamLookup
	threshold float64
	log       zerolog.Logger
}

// NewFinalizer creates a Finalizer. threshold is the fallback pass mark for
// exams that do not carry their own; non-positive means DefaultPassThreshold.
func NewFinalizer(answers AnswerSource, results ResultStore, exams ExamLookup, threshold float64, log zerolog.Logger) *Finalizer {
	if threshold <= 0 {
		threshold = DefaultPassThreshold
	}
	return &Finalizer{
		answers:   answers,
		results:   results,
		exams:     exams,
		threshold: threshold,
		log:       log.With().Str("component", "finalizer").Logger(),
	}
}

// Finalize scores the answers recorded by sessionID for examID and stores the
// result. Answers of other sessions of the same exam, such as one that was
// replaced by a new start, are not counted. Calling it again returns the
// stored result unchanged.
func (f *Finalizer) Finalize(ctx context.Context, userID int64, examID, sessionID uuid.UUID) (*model.Result, error) {
	threshold := f.threshold
	if f.exams != nil {
		exam, err := f.exams.GetByID(ctx, examID)
		if err != nil {
			return nil, fmt.Errorf("get exam: %w", err)
		}
		if exam.PassThreshold > 0 {
			threshold = exam.PassThreshold
		}
	}

	recorded, err := f.answers.ForSession(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answers := make([]model.Answer, 0, len(recorded))
	for _, a := range recorded {
		if a.ExamID != nil && *a.ExamID == examID {
			answers = append(answers, a)
		}
	}

	res := Score(answers, threshold)
	res.UserID = userID
	res.ExamID = examID

	stored, err := f.results.CreateOrGet(ctx, &res)
	if err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}

	f.log.Info().
		Int64("user_id", userID).
		Str("exam_id", examID.String()).
		Str("session_id", sessionID.String()).
		Int("total", stored.Total).
		Int("correct", stored.Correct).
		Float64("percentage", stored.Percentage).
		Bool("passed", stored.Passed).
		Msg("Exam finalized")
	return stored, nil
}

// Score computes a result from answers, taken in creation order. When a
// question was answered in more than one attempt only the latest answer
// counts. The percentage denominator is the number of counted answers.
func Score(answers []model.Answer, threshold float64) model.Result {
	latest := make(map[uuid.UUID]int, len(answers))
	order := make([]uuid.UUID, 0, len(answers))
	for i, a := range answers {
		if _, ok := latest[a.QuestionID]; !ok {
			order = append(order, a.QuestionID)
		}
		latest[a.QuestionID] = i
	}

	var res model.Result
	res.AnswerIDs = make([]uuid.UUID, 0, len(order))
	for _, qid := range order {
		a := answers[latest[qid]]
		res.Total++
		if a.IsCorrect {
			res.Correct++
		} else {
			res.Wrong++
		}
		res.AnswerIDs = append(res.AnswerIDs, a.ID)
	}

	if res.Total == 0 {
		return res
	}
	// Pass is decided on the exact ratio; only the stored percentage is rounded.
	exact := float64(res.Correct) * 100 / float64(res.Total)
	res.Percentage = math.Round(exact*100) / 100
	res.Passed = exact >= threshold
	return res
}
