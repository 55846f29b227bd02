package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
)

// violationPayload is the queue wire format for one violation event.
type violationPayload struct {
	SessionID string  `json:"session_id"`
	EventType string  `json:"event_type"`
	Metadata  *string `json:"metadata,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// ViolationQueue pushes validated violation events onto the Redis persistence
// queue and fans them out to the session's live monitor channel. It
// implements exam.ViolationSink; the ViolationWorker drains the queue into
// Postgres.
type ViolationQueue struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewViolationQueue creates a new ViolationQueue.
func NewViolationQueue(rdb *redis.Client, log zerolog.Logger) *ViolationQueue {
	return &ViolationQueue{
		rdb: rdb,
		log: log.With().Str("component", "violation_queue").Logger(),
	}
}

// Enqueue accepts one event. The RPush is the durability hand-off; the
// monitor publish is best-effort fan-out and never fails the report.
func (q *ViolationQueue) Enqueue(ctx context.Context, v *model.Violation) error {
	payload := violationPayload{
		SessionID: v.SessionID.String(),
		EventType: string(v.EventType),
		Metadata:  v.Metadata,
		Timestamp: v.CreatedAt.Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal violation: %w", err)
	}

	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue violation: %w", err)
	}

	channel := config.CacheKey.SessionMonitorChannel(payload.SessionID)
	if err := q.rdb.Publish(ctx, channel, data).Err(); err != nil {
		q.log.Warn().Err(err).Str("session_id", payload.SessionID).Msg("Monitor publish failed")
	}
	return nil
}

var _ exam.ViolationSink = (*ViolationQueue)(nil)
