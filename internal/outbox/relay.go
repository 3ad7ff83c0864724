// Package outbox moves task messages written alongside task records onto the broker.
package outbox

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"wesee/internal/config"
	"wesee/internal/database"
	"wesee/internal/domain/task"
	"wesee/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultPollingInterval = 2 * time.Second
	defaultBatchSize       = 20
	defaultMaxRetries      = 5
	defaultPublishTimeout  = 5 * time.Second
)

type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey, messageID string, body []byte) error
}

// TaskFailer records a terminal failure on a task whose message could not be delivered.
type TaskFailer interface {
	MarkFailure(ctx context.Context, id string, message string) (bool, error)
}

type MessageRelay struct {
	db        database.DB
	repo      repository.OutboxRepository
	publisher Publisher
	tasks     map[task.Kind]TaskFailer
	log       zerolog.Logger

	pollingInterval time.Duration
	batchSize       int
	maxRetries      int
	// publishTimeout bounds each broker round trip; the claim locks are held meanwhile.
	publishTimeout  time.Duration
}

func NewMessageRelay(db database.DB, repo repository.OutboxRepository, pub Publisher, tasks map[task.Kind]TaskFailer, cfg config.OutboxConfig, l zerolog.Logger) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		repo:            repo,
		publisher:       pub,
		tasks:           tasks,
		log:             l,
		pollingInterval: cfg.PollInterval,
		batchSize:       cfg.BatchSize,
		maxRetries:      cfg.MaxRetries,
		publishTimeout:  cfg.PublishTimeout,
	}
	if r.pollingInterval <= 0 {
		r.pollingInterval = defaultPollingInterval
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxRetries <= 0 {
		r.maxRetries = defaultMaxRetries
	}
	if r.publishTimeout <= 0 {
		r.publishTimeout = defaultPublishTimeout
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *MessageRelay) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.pollingInterval).Int("batch", r.batchSize).Msg("outbox relay started")
	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Msg("process outbox batch")
			}
		}
	}
}

type exhausted struct {
	kind   task.Kind
	taskID string
	err    string
}

// ProcessBatch publishes one batch of pending messages and returns how many were sent.
func (r *MessageRelay) ProcessBatch(ctx context.Context) (int, error) {
	var sent int
	var dead []exhausted

	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		msgs, err := r.repo.ClaimPending(ctx, tx, r.batchSize)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			perr := r.publish(ctx, m)
			if perr == nil {
				if err := r.repo.MarkSent(ctx, tx, m.ID); err != nil {
					return err
				}
				sent++
				continue
			}

			retries := m.RetryCount + 1
			final := retries >= r.maxRetries
			r.log.Warn().Err(perr).
				Int64("outbox_id", m.ID).
				Str("task_id", m.AggregateID).
				Int("retries", retries).
				Bool("final", final).
				Msg("publish outbox message")
			if err := r.repo.MarkAttemptFailed(ctx, tx, m.ID, retries, perr.Error(), final); err != nil {
				return err
			}
			if final {
				dead = append(dead, exhausted{kind: m.TaskKind, taskID: m.AggregateID, err: perr.Error()})
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("outbox batch: %w", err)
	}

	for _, d := range dead {
		r.failTask(ctx, d)
	}
	return sent, nil
}

func (r *MessageRelay) publish(ctx context.Context, m repository.OutboxMessage) error {
	pctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()
	return r.publisher.Publish(pctx, m.Exchange, m.RoutingKey, m.AggregateID, m.Payload)
}

func (r *MessageRelay) failTask(ctx context.Context, d exhausted) {
	repo, ok := r.tasks[d.kind]
	if !ok {
		r.log.Error().Str("kind", string(d.kind)).Str("task_id", d.taskID).Msg("no task repository for outbox message")
		return
	}
	msg := "Task could not be queued after " + strconv.Itoa(r.maxRetries) + " attempts: " + d.err
	if _, err := repo.MarkFailure(ctx, d.taskID, msg); err != nil {
		r.log.Error().Err(err).Str("task_id", d.taskID).Msg("mark undeliverable task failed")
	}
}
