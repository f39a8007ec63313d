package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `q.id, q.chapter_id, q.prompt, q.options, q.correct_option, q.order_num`

// ListByChapter retrieves all questions of a chapter, ordered by order_num.
func (r *QuestionRepository) ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions q WHERE q.chapter_id = $1
		 ORDER BY q.order_num, q.id`, chapterID,
	)
	if err != nil {
		return nil, err
	}
	return collectQuestions(rows)
}

// ListByExam retrieves the questions of the chapter an exam is drawn from.
// limit caps the number returned; 0 returns all.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit int) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + `
		 FROM questions q
		 JOIN exams e ON e.chapter_id = q.chapter_id
		 WHERE e.id = $1
		 ORDER BY q.order_num, q.id`
	args := []any{examID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectQuestions(rows)
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var rawOptions []byte
		if err := rows.Scan(&q.ID, &q.ChapterID, &q.Prompt, &rawOptions, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		opts, err := model.DecodeOptions(rawOptions)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		q.Options = opts
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (chapter_id, prompt, options, correct_option, order_num)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		q.ChapterID, q.Prompt, opts, q.CorrectOption, q.OrderNum,
	).Scan(&q.ID)
}
