package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// ResultRepository handles exam result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, user_id, exam_id, total, correct, wrong, percentage, passed, answer_ids, created_at`

// CreateOrGet inserts r, or returns the stored result when the user already
// has one for the exam. The stored row is never modified.
func (r *ResultRepository) CreateOrGet(ctx context.Context, res *model.Result) (*model.Result, error) {
	out := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO results (user_id, exam_id, total, correct, wrong, percentage, passed, answer_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, exam_id) DO NOTHING
		 RETURNING `+resultColumns,
		res.UserID, res.ExamID, res.Total, res.Correct, res.Wrong, res.Percentage, res.Passed, res.AnswerIDs,
	).Scan(scanResult(out)...)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return r.GetByUserAndExam(ctx, res.UserID, res.ExamID)
}

// GetByUserAndExam retrieves the result of one exam for one user.
func (r *ResultRepository) GetByUserAndExam(ctx context.Context, userID int64, examID uuid.UUID) (*model.Result, error) {
	out := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE user_id = $1 AND exam_id = $2`,
		userID, examID,
	).Scan(scanResult(out)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser retrieves all results of a user, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID int64) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM results WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(scanResult(&res)...); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanResult(r *model.Result) []any {
	return []any{&r.ID, &r.UserID, &r.ExamID, &r.Total, &r.Correct, &r.Wrong,
		&r.Percentage, &r.Passed, &r.AnswerIDs, &r.CreatedAt}
}
