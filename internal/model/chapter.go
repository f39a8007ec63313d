package model

import (
	"time"

	"github.com/google/uuid"
)

// Chapter groups catalog questions; practice sessions run over one chapter.
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
