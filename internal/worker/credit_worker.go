package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/model"
	"github.com/rtdacademy/connect-backend/internal/service"
)

const (
	CreditBatchSize    = 50
	CreditBatchTimeout = 2 * time.Second
	CreditPollTimeout  = 1 * time.Second
)

// CreditWorker consumes credit recompute tasks. Tasks are collected into
// short batches and deduplicated, so a registration with five enrollments
// triggers one recompute per student, not five.
type CreditWorker struct {
	credits *service.CreditService
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewCreditWorker creates a new CreditWorker.
func NewCreditWorker(credits *service.CreditService, rdb *redis.Client, log zerolog.Logger) *CreditWorker {
	return &CreditWorker{
		credits: credits,
		rdb:     rdb,
		log:     log.With().Str("component", "credit_worker").Logger(),
	}
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *CreditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("CreditWorker started")

	batch := make([]model.CreditRecalcTask, 0, CreditBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= CreditBatchSize || time.Since(lastFlush) >= CreditBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, CreditPollTimeout, config.WorkerKey.CreditRecalcQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var task model.CreditRecalcTask
			if err := json.Unmarshal([]byte(item[1]), &task); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, task)
		}
	}
}

// flush recomputes each distinct student in the batch once. A failed
// recompute is requeued.
func (w *CreditWorker) flush(ctx context.Context, batch []model.CreditRecalcTask) {
	if len(batch) == 0 {
		return
	}

	seen := make(map[model.CreditRecalcTask]struct{}, len(batch))
	for _, task := range batch {
		if _, dup := seen[task]; dup {
			continue
		}
		seen[task] = struct{}{}

		if _, err := w.credits.Recompute(ctx, task.StudentID, task.SchoolYear, task.StudentType); err != nil {
			w.log.Error().Err(err).
				Int("student_id", task.StudentID).
				Str("school_year", task.SchoolYear).
				Msg("Recompute failed — requeueing")
			raw, _ := json.Marshal(task)
			w.rdb.RPush(ctx, config.WorkerKey.CreditRecalcQueue, raw)
		}
	}
}
