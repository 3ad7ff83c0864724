package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"wesee/internal/domain/profile"
	"wesee/internal/domain/task"

	"github.com/rs/zerolog"
)

const (
	internalFailureMessage = "Internal error while processing task"
	terminalAttempts       = 3
)

// terminalRetryDelay is the backoff step between terminal write attempts.
var terminalRetryDelay = 250 * time.Millisecond

// TaskJob executes one queued task. A non-nil error means nothing ran and the delivery
// should be redelivered; every other outcome is recorded on the task itself.
type TaskJob interface {
	Kind() task.Kind
	Handle(ctx context.Context, msg task.Message) error
}

// taskFailure is a failure whose message is safe to show to clients.
type taskFailure struct {
	msg string
}

func (f *taskFailure) Error() string { return f.msg }

func failf(format string, args ...any) error {
	return &taskFailure{msg: fmt.Sprintf(format, args...)}
}

// runTask moves the record through STARTED to a terminal state around body.
func runTask(ctx context.Context, repo task.Repository, log zerolog.Logger, msg task.Message, body func(ctx context.Context) ([]byte, error)) error {
	log = log.With().Str("task_id", msg.TaskID).Str("kind", string(repo.Kind())).Logger()

	applied, err := repo.MarkStarted(ctx, msg.TaskID)
	switch {
	case errors.Is(err, task.ErrNotFound):
		log.Error().Msg("task record not found, dropping delivery")
		return nil
	case err != nil:
		return fmt.Errorf("mark %s started: %w", msg.TaskID, err)
	case !applied:
		log.Warn().Msg("task already started or finished, skipping duplicate delivery")
		return nil
	}
	log.Info().Str("linkedin_url", msg.LinkedInURL).Msg("task started")

	result, err := guard(ctx, log, body)

	// terminal writes must land even when the consumer is shutting down
	wctx := context.WithoutCancel(ctx)
	message := internalFailureMessage
	if err == nil {
		ok, serr := settle(wctx, func(ctx context.Context) (bool, error) {
			return repo.MarkSuccess(ctx, msg.TaskID, result)
		})
		switch {
		case serr == nil && !ok:
			log.Warn().Msg("task reached a terminal state elsewhere, result discarded")
			return nil
		case serr == nil:
			log.Info().Msg("task succeeded")
			return nil
		}
		log.Error().Err(serr).Msg("could not record task success, recording failure instead")
	} else {
		var tf *taskFailure
		if errors.As(err, &tf) {
			message = profile.StripNUL(tf.msg)
			log.Warn().Str("reason", message).Msg("task failed")
		} else {
			log.Error().Err(err).Msg("task failed with internal error")
		}
	}

	ok, ferr := settle(wctx, func(ctx context.Context) (bool, error) {
		return repo.MarkFailure(ctx, msg.TaskID, message)
	})
	switch {
	case ferr != nil:
		log.Error().Err(ferr).Msg("could not record task failure")
	case !ok:
		log.Warn().Msg("task reached a terminal state elsewhere, failure discarded")
	}
	return nil
}

// settle runs a terminal transition, retrying store errors up to terminalAttempts times.
// Missing records and rejected messages are returned at once.
func settle(ctx context.Context, write func(ctx context.Context) (bool, error)) (bool, error) {
	for attempt := 1; ; attempt++ {
		ok, err := write(ctx)
		if err == nil || attempt >= terminalAttempts ||
			errors.Is(err, task.ErrNotFound) || errors.Is(err, task.ErrEmptyMessage) {
			return ok, err
		}
		select {
		case <-ctx.Done():
			return ok, err
		case <-time.After(time.Duration(attempt) * terminalRetryDelay):
		}
	}
}

func guard(ctx context.Context, log zerolog.Logger, body func(ctx context.Context) ([]byte, error)) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("task panicked")
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return body(ctx)
}
