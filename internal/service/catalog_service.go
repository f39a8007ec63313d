package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
)

// Catalog errors.
var (
	ErrExamNotFound = errors.New("exam not found")
	ErrNoQuestions  = errors.New("no questions available")
)

// QuestionSource is the question store.
type QuestionSource interface {
	ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]model.Question, error)
	ListByExam(ctx context.Context, examID uuid.UUID, limit int) ([]model.Question, error)
}

// ExamSource is the exam store.
type ExamSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// CatalogService serves read-only catalog data from Redis, falling back to
// PostgreSQL and populating the cache on a miss.
type CatalogService struct {
	questions QuestionSource
	exams     ExamSource
	rdb       *redis.Client
	ttl       time.Duration
	log       zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(questions QuestionSource, exams ExamSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		questions: questions,
		exams:     exams,
		rdb:       rdb,
		ttl:       ttl,
		log:       log.With().Str("component", "catalog_service").Logger(),
	}
}

// Exam returns the exam definition.
func (s *CatalogService) Exam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := cacheAside(ctx, s, config.CacheKey.ExamKey(id.String()), func() (*model.Exam, error) {
		return s.exams.GetByID(ctx, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	return exam, err
}

// ChapterQuestions returns the ordered questions of a chapter.
func (s *CatalogService) ChapterQuestions(ctx context.Context, chapterID uuid.UUID) ([]model.Question, error) {
	qs, err := cacheAside(ctx, s, config.CacheKey.ChapterQuestionsKey(chapterID.String()), func() ([]model.Question, error) {
		qs, err := s.questions.ListByChapter(ctx, chapterID)
		if err == nil && len(qs) == 0 {
			return nil, ErrNoQuestions
		}
		return qs, err
	})
	if err != nil {
		return nil, err
	}
	return qs, nil
}

// ExamQuestions returns the ordered question set an exam asks.
func (s *CatalogService) ExamQuestions(ctx context.Context, exam *model.Exam) ([]model.Question, error) {
	return cacheAside(ctx, s, config.CacheKey.ExamQuestionsKey(exam.ID.String()), func() ([]model.Question, error) {
		qs, err := s.questions.ListByExam(ctx, exam.ID, exam.TotalQuestions)
		if err == nil && len(qs) == 0 {
			return nil, ErrNoQuestions
		}
		return qs, err
	})
}

// WarmChapter reloads a chapter's question set into Redis.
func (s *CatalogService) WarmChapter(ctx context.Context, chapterID uuid.UUID) (int, error) {
	qs, err := s.questions.ListByChapter(ctx, chapterID)
	if err != nil {
		return 0, fmt.Errorf("list questions: %w", err)
	}
	if len(qs) == 0 {
		return 0, ErrNoQuestions
	}
	if err := s.store(ctx, config.CacheKey.ChapterQuestionsKey(chapterID.String()), qs); err != nil {
		return 0, err
	}

	s.log.Debug().
		Str("chapter_id", chapterID.String()).
		Int("questions", len(qs)).
		Msg("Cache warmed")
	return len(qs), nil
}

// Invalidate drops every cached entry of an exam and its chapter.
func (s *CatalogService) Invalidate(ctx context.Context, exam *model.Exam) error {
	return s.rdb.Del(ctx,
		config.CacheKey.ExamKey(exam.ID.String()),
		config.CacheKey.ExamQuestionsKey(exam.ID.String()),
		config.CacheKey.ChapterQuestionsKey(exam.ChapterID.String()),
	).Err()
}

func (s *CatalogService) store(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache %s: %w", key, err)
	}
	return nil
}

// cacheAside reads key from Redis, or calls load and caches its result.
// A Redis outage degrades to a direct load.
func cacheAside[T any](ctx context.Context, s *CatalogService, key string, load func() (T, error)) (T, error) {
	var zero T

	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			return v, nil
		}
		s.log.Warn().Str("key", key).Msg("Corrupt cache entry, reloading")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed, loading from database")
	}

	v, err := load()
	if err != nil {
		return zero, err
	}
	if err := s.store(ctx, key, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return v, nil
}
