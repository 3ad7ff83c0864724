// Package worker consumes task messages from the broker and hands them to the task jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"wesee/internal/domain/task"
	"wesee/internal/infrastructure/queue"
	"wesee/internal/usecase"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Consumer interface {
	Consume(ctx context.Context, queue string, prefetch int, h queue.Handler) error
}

// Runner runs one consumer per job. Any consumer failing stops the others.
type Runner struct {
	consumer     Consumer
	queues       map[task.Kind]string
	prefetch     int
	jobs         []usecase.TaskJob
	requeueDelay time.Duration
	log          zerolog.Logger
}

func NewRunner(consumer Consumer, queues map[task.Kind]string, prefetch int, l zerolog.Logger, jobs ...usecase.TaskJob) *Runner {
	return &Runner{
		consumer:     consumer,
		queues:       queues,
		prefetch:     prefetch,
		jobs:         jobs,
		requeueDelay: 2 * time.Second,
		log:          l,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	for _, job := range r.jobs {
		if _, ok := r.queues[job.Kind()]; !ok {
			return fmt.Errorf("no queue configured for %s tasks", job.Kind())
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range r.jobs {
		q := r.queues[job.Kind()]
		h := r.Handler(job)
		g.Go(func() error {
			if err := r.consumer.Consume(gctx, q, r.prefetch, h); err != nil {
				return fmt.Errorf("consumer %s: %w", q, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Handler adapts a job to a broker delivery handler.
func (r *Runner) Handler(job usecase.TaskJob) queue.Handler {
	log := r.log.With().Str("kind", string(job.Kind())).Logger()

	return func(ctx context.Context, body []byte) queue.Decision {
		msg, err := task.DecodeMessage(body)
		if err != nil {
			log.Error().Err(err).Bytes("body", body).Msg("undecodable task message")
			return queue.Reject
		}
		if msg.Kind != "" && msg.Kind != job.Kind() {
			log.Error().Str("task_id", msg.TaskID).Str("message_kind", string(msg.Kind)).Msg("message routed to wrong queue")
			return queue.Reject
		}

		if err := job.Handle(ctx, msg); err != nil {
			log.Warn().Err(err).Str("task_id", msg.TaskID).Msg("task not started, requeueing")
			r.pause(ctx)
			return queue.Requeue
		}
		return queue.Ack
	}
}

func (r *Runner) pause(ctx context.Context) {
	if r.requeueDelay <= 0 {
		return
	}
	t := time.NewTimer(r.requeueDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
