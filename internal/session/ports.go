package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// AnswerLedger appends answer records. Append fills ID and CreatedAt.
type AnswerLedger interface {
	Append(ctx context.Context, a *model.Answer) error
}

// Finalizer turns the answers one session recorded for an exam into a Result.
// It must be safe to call more than once for the same user and exam.
type Finalizer interface {
	Finalize(ctx context.Context, userID int64, examID, sessionID uuid.UUID) (*model.Result, error)
}

// Messenger is the outer messaging layer. Both calls are fire-and-forget
// from the engine's point of view; errors are reported, never retried.
type Messenger interface {
	DeliverQuestion(ctx context.Context, target string, q model.QuestionDelivery) error
	DeliverCompletion(ctx context.Context, target string, s model.CompletionSummary) error
}

// Observer receives lifecycle events after the session lock is released.
type Observer interface {
	Notify(ctx context.Context, ev Event)
}

type nopObserver struct{}

func (nopObserver) Notify(context.Context, Event) {}
