package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avialearn/avialearn-backend/internal/config"
	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AttemptWorker consumes the persistence retry queue: attempts whose
// synchronous write failed at submit time. Delivery is at-least-once;
// the attempt ID acts as the idempotency key, so a redelivered job
// cannot duplicate history or double-count the attempt limit.
type AttemptWorker struct {
	progressRepo *repository.ProgressRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewAttemptWorker creates a new AttemptWorker.
func NewAttemptWorker(progressRepo *repository.ProgressRepository, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		progressRepo: progressRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "attempt_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AttemptWorker) Start(ctx context.Context) {
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

func (w *AttemptWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAttemptsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var job model.AttemptPersistJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persist(ctx, &job); err != nil {
		w.log.Error().Err(err).
			Str("attempt_id", job.Attempt.ID.String()).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AttemptWorker) persist(ctx context.Context, job *model.AttemptPersistJob) error {
	if err := w.progressRepo.AppendAttempt(ctx, job.Attempt); err != nil {
		return err
	}
	if job.Completion != nil {
		if err := w.progressRepo.UpdateCompletion(ctx, job.Attempt.UserID, job.Attempt.CourseID, *job.Completion); err != nil {
			return err
		}
	}

	w.log.Info().
		Str("attempt_id", job.Attempt.ID.String()).
		Str("user_id", job.Attempt.UserID.String()).
		Msg("Queued attempt persisted")
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *AttemptWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAttemptsQueue).Result()
		if err != nil {
			break
		}

		var job model.AttemptPersistJob
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persist(ctx, &job); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
