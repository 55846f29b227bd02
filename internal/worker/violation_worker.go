package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ViolationWorker drains the Redis violation queue into Postgres in
// batches. Inserts are append-only, so a crash between BLPop and flush can
// at worst lose the in-memory buffer, never corrupt the timeline.
type ViolationWorker struct {
	violations *repository.ViolationRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewViolationWorker creates a new ViolationWorker.
func NewViolationWorker(violations *repository.ViolationRepository, rdb *redis.Client, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		violations: violations,
		rdb:        rdb,
		log:        log.With().Str("component", "violation_worker").Logger(),
	}
}

// Start runs the drain loop until ctx is cancelled, then flushes what is
// left in the buffer.
func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ViolationWorker started")

	buffer := make([]model.Violation, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistViolationsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // queue empty, loop back to the flush timer
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		v, err := decodePayload(result[1])
		if err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed violation")
			continue
		}
		buffer = append(buffer, v)
	}
}

func decodePayload(data string) (model.Violation, error) {
	var p violationPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return model.Violation{}, err
	}
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return model.Violation{}, err
	}
	return model.Violation{
		SessionID: sessionID,
		EventType: model.ViolationType(p.EventType),
		Metadata:  p.Metadata,
		CreatedAt: time.Unix(p.Timestamp, 0).UTC(),
	}, nil
}

// flushSafe attempts bulk insert, then row-by-row recovery, then requeue.
func (w *ViolationWorker) flushSafe(ctx context.Context, batch []model.Violation) {
	if err := w.violations.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ViolationWorker) fallbackInsert(ctx context.Context, batch []model.Violation) {
	var requeueList []model.Violation
	for i := range batch {
		v := batch[i]
		if err := w.violations.Insert(ctx, &v); err != nil {
			w.log.Error().Err(err).Str("session_id", v.SessionID.String()).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, v)
		}
	}
	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ViolationWorker) requeue(ctx context.Context, items []model.Violation) {
	pipe := w.rdb.Pipeline()
	for _, v := range items {
		data, _ := json.Marshal(violationPayload{
			SessionID: v.SessionID.String(),
			EventType: string(v.EventType),
			Metadata:  v.Metadata,
			Timestamp: v.CreatedAt.Unix(),
		})
		pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue violations to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed violations back to Redis")
	// Avoid thrashing if the database is down hard.
	time.Sleep(2 * time.Second)
}

func (w *ViolationWorker) shutdown(buffer []model.Violation) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
