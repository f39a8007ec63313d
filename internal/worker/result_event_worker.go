package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/event"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultEventWorker drains the result event queue into the event publisher.
type ResultEventWorker struct {
	rdb       *redis.Client
	publisher event.Publisher
	log       zerolog.Logger
}

func NewResultEventWorker(rdb *redis.Client, publisher event.Publisher, log zerolog.Logger) *ResultEventWorker {
	return &ResultEventWorker{
		rdb:       rdb,
		publisher: publisher,
		log:       log.With().Str("component", "result_event_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultEventWorker started")

	batch := make([]*event.ResultFinalizedEvent, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.ResultEventsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var ev event.ResultFinalizedEvent
			if err := json.Unmarshal([]byte(item[1]), &ev); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &ev)
		}
	}
}

// ----------------------------------------------------------------
// Publish with requeue
// ----------------------------------------------------------------

// flushSafe publishes every event of the batch. Events that fail are pushed
// back to the queue in one pipeline so they are retried on a later pass.
func (w *ResultEventWorker) flushSafe(ctx context.Context, batch []*event.ResultFinalizedEvent) int {
	if len(batch) == 0 {
		return 0
	}

	var failed []*event.ResultFinalizedEvent
	for _, ev := range batch {
		if err := w.publisher.PublishResultFinalized(ctx, ev); err != nil {
			w.log.Warn().Err(err).
				Str("result_id", ev.ResultID.String()).
				Msg("Publish failed, requeueing")
			failed = append(failed, ev)
		}
	}

	if len(failed) > 0 {
		pipe := w.rdb.Pipeline()
		for _, ev := range failed {
			raw, _ := json.Marshal(ev)
			pipe.RPush(ctx, config.WorkerKey.ResultEventsQueue, raw)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			w.log.Error().Err(err).Int("events", len(failed)).Msg("Requeue failed, events lost")
		}
	}

	w.log.Debug().
		Int("published", len(batch)-len(failed)).
		Int("requeued", len(failed)).
		Msg("Result batch flushed")
	return len(batch) - len(failed)
}
