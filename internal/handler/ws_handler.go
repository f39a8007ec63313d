package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/messenger"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/session"
	"github.com/stemsi/exstem-quiz/internal/validator"
	ws "github.com/stemsi/exstem-quiz/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Limiter charges one unit to a key and reports whether it was allowed.
type Limiter interface {
	Allow(key string) bool
}

// WSHandler streams questions to a user and accepts answers over the same socket.
type WSHandler struct {
	hub      *messenger.Hub
	sessions SessionUseCases
	limiter  Limiter
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. limiter may be nil.
func NewWSHandler(hub *messenger.Hub, sessions SessionUseCases, limiter Limiter, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:      hub,
		sessions: sessions,
		limiter:  limiter,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/stream?token=...
// Registers the socket as the user's delivery target and replays the
// question in flight, if any.
func (h *WSHandler) QuizStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID
	target := messenger.TargetFor(userID)
	client := h.hub.Register(target, conn)
	defer h.hub.Unregister(target, client)

	wsLog := h.log.With().Int64("user_id", userID).Logger()
	wsLog.Info().Msg("User connected")

	// The request context is detached from the hijacked connection.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.resume(ctx, client, wsLog, userID)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(ctx, client, wsLog, userID, &msg)
		case ws.ActionResume:
			h.resume(ctx, client, wsLog, userID)
		case ws.ActionPing:
			_ = client.Send(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = client.SendError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) resume(ctx context.Context, client *messenger.Client, log zerolog.Logger, userID int64) {
	err := h.sessions.Resume(ctx, userID)
	if err == nil || errors.Is(err, session.ErrNoActiveSession) {
		return
	}
	if session.IsDelivery(err) {
		log.Debug().Err(err).Msg("Resume delivery failed")
		return
	}
	h.sendFailure(client, log, err)
}

func (h *WSHandler) handleAnswer(ctx context.Context, client *messenger.Client, log zerolog.Logger, userID int64, msg *ws.RequestPayload) {
	// Same rules as POST /sessions/answer.
	req := model.SubmitAnswerRequest{QuestionIndex: msg.QuestionIndex, Option: msg.Option}
	if fields := validator.Struct(&req); fields != nil {
		_ = client.SendError(string(response.ErrInvalidPayload), joinFields(fields))
		return
	}

	if h.limiter != nil && !h.limiter.Allow("user:"+strconv.FormatInt(userID, 10)) {
		_ = client.SendError(string(response.ErrRateLimitExceeded), response.GetMessage(response.ErrRateLimitExceeded))
		return
	}

	out, err := h.sessions.Answer(ctx, userID, *msg.QuestionIndex, msg.Option)
	if err != nil {
		h.sendFailure(client, log, err)
		return
	}

	_ = client.Send(ws.AckResponse{
		Event:         ws.EventAck,
		QuestionIndex: out.QuestionIndex,
		Correct:       out.Correct,
		Completed:     out.Completed,
	})
}

// joinFields renders validation failures as one line, ordered by field.
func joinFields(fields map[string]string) string {
	msgs := make([]string, 0, len(fields))
	for _, msg := range fields {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

func (h *WSHandler) sendFailure(client *messenger.Client, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Session operation failed")
	}
	_ = client.SendError(string(code), response.GetMessage(code))
}
