package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/messenger"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/session"
)

// ErrExamAlreadyCompleted is returned when the user already has a result for the exam.
var ErrExamAlreadyCompleted = errors.New("exam already completed")

// SessionEngine is the live session engine.
type SessionEngine interface {
	Start(ctx context.Context, req session.StartRequest) (session.Snapshot, error)
	SubmitAnswer(ctx context.Context, userID int64, questionIndex int, option string) (*session.Outcome, error)
	Snapshot(userID int64) (session.Snapshot, error)
	Abandon(ctx context.Context, userID int64) (*model.CompletionSummary, error)
	Redeliver(ctx context.Context, userID int64) error
}

// Catalog resolves exams and chapters into question sets.
type Catalog interface {
	Exam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ExamQuestions(ctx context.Context, exam *model.Exam) ([]model.Question, error)
	ChapterQuestions(ctx context.Context, chapterID uuid.UUID) ([]model.Question, error)
}

// ResultReader reads stored results.
type ResultReader interface {
	GetByUserAndExam(ctx context.Context, userID int64, examID uuid.UUID) (*model.Result, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Result, error)
}

// SessionService resolves user requests into engine operations.
type SessionService struct {
	engine  SessionEngine
	catalog Catalog
	results ResultReader
	log     zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(engine SessionEngine, catalog Catalog, results ResultReader, log zerolog.Logger) *SessionService {
	return &SessionService{
		engine:  engine,
		catalog: catalog,
		results: results,
		log:     log.With().Str("component", "session_service").Logger(),
	}
}

// StartExam starts a graded session over an exam's question set. An exam can
// only be taken until it has a result.
func (s *SessionService) StartExam(ctx context.Context, userID int64, examID uuid.UUID) (session.Snapshot, error) {
	exam, err := s.catalog.Exam(ctx, examID)
	if err != nil {
		return session.Snapshot{}, err
	}

	_, err = s.results.GetByUserAndExam(ctx, userID, examID)
	switch {
	case err == nil:
		return session.Snapshot{}, ErrExamAlreadyCompleted
	case !errors.Is(err, repository.ErrNotFound):
		return session.Snapshot{}, fmt.Errorf("check result: %w", err)
	}

	questions, err := s.catalog.ExamQuestions(ctx, exam)
	if err != nil {
		return session.Snapshot{}, err
	}

	return s.start(ctx, session.StartRequest{
		UserID:    userID,
		Questions: questions,
		Mode:      model.SessionModeExam,
		ExamID:    &exam.ID,
		Target:    messenger.TargetFor(userID),
		UseTimer:  exam.UseTimer,
		TimeLimit: exam.TimeLimit(),
	})
}

// StartPractice starts an ungraded session over a chapter.
func (s *SessionService) StartPractice(ctx context.Context, userID int64, chapterID uuid.UUID, useTimer bool, timeLimit time.Duration) (session.Snapshot, error) {
	questions, err := s.catalog.ChapterQuestions(ctx, chapterID)
	if err != nil {
		return session.Snapshot{}, err
	}

	return s.start(ctx, session.StartRequest{
		UserID:    userID,
		Questions: questions,
		Mode:      model.SessionModePractice,
		Target:    messenger.TargetFor(userID),
		UseTimer:  useTimer,
		TimeLimit: timeLimit,
	})
}

func (s *SessionService) start(ctx context.Context, req session.StartRequest) (session.Snapshot, error) {
	snap, err := s.engine.Start(ctx, req)
	if err != nil && !s.tolerable(err, req.UserID) {
		return session.Snapshot{}, err
	}
	return snap, nil
}

// Answer submits an answer for the question at questionIndex.
func (s *SessionService) Answer(ctx context.Context, userID int64, questionIndex int, option string) (*session.Outcome, error) {
	out, err := s.engine.SubmitAnswer(ctx, userID, questionIndex, option)
	if err != nil && !s.tolerable(err, userID) {
		return nil, err
	}
	return out, nil
}

// Current returns the user's live session.
func (s *SessionService) Current(userID int64) (session.Snapshot, error) {
	return s.engine.Snapshot(userID)
}

// Resume re-sends the question in flight to the user's chat stream.
func (s *SessionService) Resume(ctx context.Context, userID int64) error {
	return s.engine.Redeliver(ctx, userID)
}

// Abandon ends the user's live session.
func (s *SessionService) Abandon(ctx context.Context, userID int64) (*model.CompletionSummary, error) {
	summary, err := s.engine.Abandon(ctx, userID)
	if err != nil && !s.tolerable(err, userID) {
		return nil, err
	}
	return summary, nil
}

// History lists the user's stored exam results.
func (s *SessionService) History(ctx context.Context, userID int64) ([]model.Result, error) {
	results, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.Result{}
	}
	return results, nil
}

// tolerable reports whether err only means the chat stream missed a message.
// The HTTP reply carries the same content, so such a turn still succeeded.
func (s *SessionService) tolerable(err error, userID int64) bool {
	if !session.IsDelivery(err) {
		return false
	}
	s.log.Debug().Err(err).Int64("user_id", userID).Msg("Chat stream missed a delivery")
	return true
}
