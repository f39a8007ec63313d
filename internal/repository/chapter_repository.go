package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// ChapterRepository handles chapter data access.
type ChapterRepository struct {
	pool *pgxpool.Pool
}

// NewChapterRepository creates a new ChapterRepository.
func NewChapterRepository(pool *pgxpool.Pool) *ChapterRepository {
	return &ChapterRepository{pool: pool}
}

// Create inserts a new chapter.
func (r *ChapterRepository) Create(ctx context.Context, c *model.Chapter) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO chapters (title) VALUES ($1)
		 RETURNING id, created_at`, c.Title,
	).Scan(&c.ID, &c.CreatedAt)
}

// GetByID retrieves a chapter by its UUID.
func (r *ChapterRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	c := &model.Chapter{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, created_at FROM chapters WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
