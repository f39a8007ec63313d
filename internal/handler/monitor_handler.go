package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/response"
)

const keepAliveInterval = 30 * time.Second

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	ActiveSessions() int
}

// ConnectionCounter reports how many chat clients are connected.
type ConnectionCounter interface {
	Connected() int
}

type MonitorHandler struct {
	rdb      *redis.Client
	sessions SessionCounter
	conns    ConnectionCounter
	log      zerolog.Logger
}

func NewMonitorHandler(rdb *redis.Client, sessions SessionCounter, conns ConnectionCounter, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		sessions: sessions,
		conns:    conns,
		log:      log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorStream godoc
// GET /api/v1/monitor/stream?exam_id=...
// Streams session lifecycle events as SSE, for every session or one exam's.
func (h *MonitorHandler) MonitorStream(c *gin.Context) {
	channel := config.CacheKey.MonitorChannel()
	if raw := c.Query("exam_id"); raw != "" {
		examID, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		channel = config.CacheKey.ExamMonitorChannel(examID.String())
	}

	reqCtx := c.Request.Context()

	pubsub := h.rdb.Subscribe(reqCtx, channel)
	defer pubsub.Close()
	// Wait for the subscription so no event published after the snapshot is lost.
	if _, err := pubsub.Receive(reqCtx); err != nil {
		h.log.Error().Err(err).Str("channel", channel).Msg("Monitor subscribe failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}
	ch := pubsub.Channel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("message", gin.H{
		"type": "snapshot",
		"data": gin.H{
			"active_sessions":   h.sessions.ActiveSessions(),
			"connected_clients": h.conns.Connected(),
		},
	})
	c.Writer.Flush()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	h.log.Info().Str("channel", channel).Msg("Monitor attached to live stream")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("channel", channel).Msg("Monitor detached from live stream")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payloads are already JSON; forward them as-is.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}
