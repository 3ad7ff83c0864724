package repository

import (
	"context"
	"fmt"
	"time"

	"wesee/internal/database"
	"wesee/internal/domain/task"
)

const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

type OutboxMessage struct {
	ID           int64
	AggregateID  string
	TaskKind     task.Kind
	Exchange     string
	RoutingKey   string
	Payload      []byte
	Status       string
	RetryCount   int
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, q database.Querier, msg OutboxMessage) error
	ClaimPending(ctx context.Context, tx database.Tx, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, q database.Querier, id int64) error
	MarkAttemptFailed(ctx context.Context, q database.Querier, id int64, retryCount int, errMsg string, final bool) error
}

type PostgresOutboxRepository struct{}

func NewPostgresOutboxRepository() *PostgresOutboxRepository {
	return &PostgresOutboxRepository{}
}

var _ OutboxRepository = (*PostgresOutboxRepository)(nil)

func (r *PostgresOutboxRepository) Enqueue(ctx context.Context, q database.Querier, msg OutboxMessage) error {
	_, err := q.Exec(ctx,
		`INSERT INTO outbox_messages (aggregate_id, task_kind, exchange, routing_key, payload, status)
		 VALUES ($1, $2, $3, $4, $5::jsonb, 'PENDING')`,
		msg.AggregateID, string(msg.TaskKind), msg.Exchange, msg.RoutingKey, string(msg.Payload),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox message: %w", err)
	}
	return nil
}

// ClaimPending locks a batch of pending rows for the caller's transaction. Rows locked by
// another relay are skipped.
func (r *PostgresOutboxRepository) ClaimPending(ctx context.Context, tx database.Tx, limit int) ([]OutboxMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := tx.Query(ctx,
		`SELECT id, aggregate_id, task_kind, exchange, routing_key, payload::text, status, retry_count, error_message, created_at
		 FROM outbox_messages
		 WHERE status = 'PENDING'
		 ORDER BY created_at ASC, id ASC
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim outbox messages: %w", err)
	}
	defer rows.Close()

	var out []OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		var kind, payload string
		if err := rows.Scan(&m.ID, &m.AggregateID, &kind, &m.Exchange, &m.RoutingKey, &payload,
			&m.Status, &m.RetryCount, &m.ErrorMessage, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		m.TaskKind = task.Kind(kind)
		m.Payload = []byte(payload)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim outbox messages: %w", err)
	}
	return out, nil
}

func (r *PostgresOutboxRepository) MarkSent(ctx context.Context, q database.Querier, id int64) error {
	_, err := q.Exec(ctx,
		`UPDATE outbox_messages SET status = 'SENT', error_message = '', processed_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox message sent: %w", err)
	}
	return nil
}

func (r *PostgresOutboxRepository) MarkAttemptFailed(ctx context.Context, q database.Querier, id int64, retryCount int, errMsg string, final bool) error {
	status := OutboxPending
	if final {
		status = OutboxFailed
	}
	_, err := q.Exec(ctx,
		`UPDATE outbox_messages
		 SET retry_count = $2, error_message = $3, status = $4,
		     processed_at = CASE WHEN $4 = 'FAILED' THEN now() ELSE processed_at END
		 WHERE id = $1`,
		id, retryCount, errMsg, status,
	)
	if err != nil {
		return fmt.Errorf("mark outbox message attempt: %w", err)
	}
	return nil
}
