package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/session"
)

// classify maps a domain error to an HTTP status and API error code.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		return http.StatusNotFound, response.ErrNoActiveSession
	case errors.Is(err, session.ErrStaleInteraction):
		return http.StatusConflict, response.ErrStaleInteraction
	case errors.Is(err, service.ErrExamNotFound):
		return http.StatusNotFound, response.ErrExamNotFound
	case errors.Is(err, service.ErrExamAlreadyCompleted):
		return http.StatusConflict, response.ErrExamAlreadyCompleted
	case errors.Is(err, service.ErrNoQuestions), errors.Is(err, session.ErrEmptyQuestionSet):
		return http.StatusUnprocessableEntity, response.ErrNoQuestions
	case session.IsPersistence(err):
		return http.StatusServiceUnavailable, response.ErrPersistence
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// fail writes the error response for err, logging the ones that are not the
// caller's fault.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", response.RequestID(c)).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}
