package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/model"
	"github.com/rtdacademy/connect-backend/internal/repository"
)

// GradebookWorker consumes the gradebook sync queue and UPSERTs best scores
// into the gradebook projection. Grading never waits on it; a failed item is
// requeued and retried.
type GradebookWorker struct {
	gradebook *repository.GradebookRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewGradebookWorker creates a new GradebookWorker.
func NewGradebookWorker(gradebook *repository.GradebookRepository, rdb *redis.Client, log zerolog.Logger) *GradebookWorker {
	return &GradebookWorker{
		gradebook: gradebook,
		rdb:       rdb,
		log:       log.With().Str("component", "gradebook_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *GradebookWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *GradebookWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.GradebookSyncQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var item model.GradebookItem
	if err := json.Unmarshal([]byte(result[1]), &item); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.gradebook.Upsert(ctx, &item); err != nil {
		w.log.Error().Err(err).
			Int("student_id", item.StudentID).
			Int("course_id", item.CourseID).
			Str("assessment_code", item.AssessmentCode).
			Msg("Sync error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.GradebookSyncQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *GradebookWorker) drain(ctx context.Context) {
	var batch []*model.GradebookItem
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.GradebookSyncQueue).Result()
		if err != nil {
			break
		}

		var item model.GradebookItem
		if err := json.Unmarshal([]byte(result), &item); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		batch = append(batch, &item)
	}

	if len(batch) == 0 {
		return
	}

	if err := w.gradebook.BulkUpsert(ctx, batch); err != nil {
		w.log.Error().Err(err).Int("count", len(batch)).Msg("Drain bulk sync failed, requeueing")
		for _, item := range batch {
			raw, _ := json.Marshal(item)
			w.rdb.RPush(ctx, config.WorkerKey.GradebookSyncQueue, raw)
		}
		return
	}
	w.log.Info().Int("count", len(batch)).Msg("Drained remaining items")
}
