package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/session"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// SessionUseCases is what the quiz handlers need from the service layer.
type SessionUseCases interface {
	StartExam(ctx context.Context, userID int64, examID uuid.UUID) (session.Snapshot, error)
	StartPractice(ctx context.Context, userID int64, chapterID uuid.UUID, useTimer bool, timeLimit time.Duration) (session.Snapshot, error)
	Answer(ctx context.Context, userID int64, questionIndex int, option string) (*session.Outcome, error)
	Current(userID int64) (session.Snapshot, error)
	Resume(ctx context.Context, userID int64) error
	Abandon(ctx context.Context, userID int64) (*model.CompletionSummary, error)
	History(ctx context.Context, userID int64) ([]model.Result, error)
}

// SessionHandler serves the quiz session REST endpoints.
type SessionHandler struct {
	sessions SessionUseCases
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionUseCases, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		log:      log.With().Str("component", "session_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/v1/quiz/sessions
// Starts an exam (exam_id) or a practice run (chapter_id), replacing any live session.
func (h *SessionHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if (req.ExamID == "") == (req.ChapterID == "") {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"exam_id": "exactly one of exam_id or chapter_id is required",
		})
		return
	}

	var (
		snap session.Snapshot
		err  error
	)
	if req.ExamID != "" {
		snap, err = h.sessions.StartExam(c.Request.Context(), claims.UserID, uuid.MustParse(req.ExamID))
	} else {
		limit := time.Duration(req.TimeLimitSeconds) * time.Second
		snap, err = h.sessions.StartPractice(c.Request.Context(), claims.UserID, uuid.MustParse(req.ChapterID), req.UseTimer, limit)
	}
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, snap)
}

// SubmitAnswer godoc
// POST /api/v1/quiz/sessions/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	out, err := h.sessions.Answer(c.Request.Context(), claims.UserID, *req.QuestionIndex, req.Option)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

// GetCurrent godoc
// GET /api/v1/quiz/sessions/current
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	claims := middleware.GetClaims(c)

	snap, err := h.sessions.Current(claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, snap)
}

// AbandonCurrent godoc
// DELETE /api/v1/quiz/sessions/current
func (h *SessionHandler) AbandonCurrent(c *gin.Context) {
	claims := middleware.GetClaims(c)

	summary, err := h.sessions.Abandon(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// ListResults godoc
// GET /api/v1/quiz/results
func (h *SessionHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)

	results, err := h.sessions.History(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}
