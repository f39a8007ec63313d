package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// AnswerRepository is the append-only answer ledger.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Append records an answer and fills its ID and CreatedAt. A second answer for
// the same session question is rejected with ErrDuplicateAnswer.
func (r *AnswerRepository) Append(ctx context.Context, a *model.Answer) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO answers (session_id, user_id, exam_id, question_id, question_index, selected_option, is_correct)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, session_id, question_id) DO NOTHING
		 RETURNING id, created_at`,
		a.SessionID, a.UserID, a.ExamID, a.QuestionID, a.QuestionIndex, a.SelectedOption, a.IsCorrect,
	).Scan(&a.ID, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateAnswer
	}
	return err
}

// ForSession lists the answers recorded by one session, oldest first.
func (r *AnswerRepository) ForSession(ctx context.Context, userID int64, sessionID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, user_id, exam_id, question_id, question_index, selected_option, is_correct, created_at
		 FROM answers
		 WHERE user_id = $1 AND session_id = $2
		 ORDER BY created_at, id`, userID, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.UserID, &a.ExamID, &a.QuestionID,
			&a.QuestionIndex, &a.SelectedOption, &a.IsCorrect, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
