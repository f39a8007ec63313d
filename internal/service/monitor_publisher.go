package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/event"
	"github.com/stemsi/exstem-quiz/internal/session"
)

// MonitorPublisher fans session lifecycle events out to Redis: every event
// goes to the monitor channels, finalized exam results also go to the result
// event queue drained by the ResultEventWorker, whichever event carries them.
type MonitorPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewMonitorPublisher creates a new MonitorPublisher.
func NewMonitorPublisher(rdb *redis.Client, log zerolog.Logger) *MonitorPublisher {
	return &MonitorPublisher{
		rdb: rdb,
		log: log.With().Str("component", "monitor_publisher").Logger(),
	}
}

// Notify implements session.Observer. Failures are logged and dropped.
func (p *MonitorPublisher) Notify(ctx context.Context, ev session.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Str("type", string(ev.Type)).Msg("Marshal session event")
		return
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, config.CacheKey.MonitorChannel(), payload)
	if ev.ExamID != nil {
		pipe.Publish(ctx, config.CacheKey.ExamMonitorChannel(ev.ExamID.String()), payload)
	}

	// Completed and abandoned exams both carry the stored result.
	if ev.Result != nil {
		raw, err := json.Marshal(event.NewResultFinalizedEvent(ev.SessionID, ev.Result))
		if err != nil {
			p.log.Error().Err(err).Msg("Marshal result event")
		} else {
			pipe.RPush(ctx, config.WorkerKey.ResultEventsQueue, raw)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		p.log.Warn().Err(err).
			Str("type", string(ev.Type)).
			Int64("user_id", ev.UserID).
			Msg("Publish session event failed")
	}
}
