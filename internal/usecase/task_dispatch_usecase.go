package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"wesee/internal/database"
	"wesee/internal/domain/profile"
	"wesee/internal/domain/task"
	"wesee/internal/infrastructure/queue"
	"wesee/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ScrapeRequest struct {
	LinkedInURL  string `json:"linkedin_url" validate:"required,url,linkedin_profile"`
	ForceRefresh bool   `json:"force_refresh"`
}

type CVRequest struct {
	LinkedInURL    string `json:"linkedin_url" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
}

// MissingProfileError is returned when a CV is requested for a profile that was never scraped.
type MissingProfileError struct {
	LinkedInURL string
}

func (e *MissingProfileError) Error() string {
	return fmt.Sprintf("LinkedIn data not found for URL: %s. Please scrape the profile first.", e.LinkedInURL)
}

func (e *MissingProfileError) Unwrap() error {
	return profile.ErrNotFound
}

type TaskDispatchUsecase interface {
	DispatchScrape(ctx context.Context, req ScrapeRequest) (task.Record, error)
	DispatchCV(ctx context.Context, req CVRequest) (task.Record, error)
}

// TaskDispatcher creates task records and their queue messages in one transaction. The outbox
// relay publishes the messages after commit.
type TaskDispatcher struct {
	db       database.DB
	tasks    map[task.Kind]task.Repository
	outbox   repository.OutboxRepository
	profiles ProfileUsecase
	exchange string
	validate *validator.Validate
	log      zerolog.Logger
	newID    func() string
}

func NewTaskDispatcher(db database.DB, outbox repository.OutboxRepository, profiles ProfileUsecase, exchange string, l zerolog.Logger, repos ...task.Repository) *TaskDispatcher {
	tasks := make(map[task.Kind]task.Repository, len(repos))
	for _, r := range repos {
		tasks[r.Kind()] = r
	}
	return &TaskDispatcher{
		db:       db,
		tasks:    tasks,
		outbox:   outbox,
		profiles: profiles,
		exchange: exchange,
		validate: NewValidator(),
		log:      l,
		newID:    uuid.NewString,
	}
}

func (u *TaskDispatcher) DispatchScrape(ctx context.Context, req ScrapeRequest) (task.Record, error) {
	req.LinkedInURL = profile.NormalizeURL(req.LinkedInURL)
	if err := u.validate.Struct(req); err != nil {
		return task.Record{}, toValidationError(err)
	}
	return u.dispatch(ctx, task.KindScrape, task.Params{
		LinkedInURL:  req.LinkedInURL,
		ForceRefresh: req.ForceRefresh,
	})
}

func (u *TaskDispatcher) DispatchCV(ctx context.Context, req CVRequest) (task.Record, error) {
	req.LinkedInURL = profile.NormalizeURL(req.LinkedInURL)
	if err := u.validate.Struct(req); err != nil {
		return task.Record{}, toValidationError(err)
	}

	ok, err := u.profiles.Exists(ctx, req.LinkedInURL)
	if err != nil {
		return task.Record{}, fmt.Errorf("check profile: %w", err)
	}
	if !ok {
		return task.Record{}, &MissingProfileError{LinkedInURL: req.LinkedInURL}
	}

	return u.dispatch(ctx, task.KindCV, task.Params{
		LinkedInURL:    req.LinkedInURL,
		JobDescription: req.JobDescription,
	})
}

func (u *TaskDispatcher) dispatch(ctx context.Context, kind task.Kind, p task.Params) (task.Record, error) {
	repo, ok := u.tasks[kind]
	if !ok {
		return task.Record{}, fmt.Errorf("no repository for %s tasks", kind)
	}

	id := u.newID()
	var rec task.Record
	err := database.WithTx(ctx, u.db, func(tx database.Tx) error {
		var err error
		rec, err = repo.Create(ctx, tx, id, p)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(rec.Message())
		if err != nil {
			return err
		}
		return u.outbox.Enqueue(ctx, tx, repository.OutboxMessage{
			AggregateID: id,
			TaskKind:    kind,
			Exchange:    u.exchange,
			RoutingKey:  queue.RoutingKey(kind),
			Payload:     payload,
		})
	})
	if err != nil {
		return task.Record{}, fmt.Errorf("dispatch %s task: %w", kind, err)
	}

	u.log.Info().
		Str("task_id", id).
		Str("kind", string(kind)).
		Str("linkedin_url", p.LinkedInURL).
		Msg("task dispatched")
	return rec, nil
}
