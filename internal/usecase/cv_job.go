package usecase

import (
	"context"
	"errors"

	"wesee/internal/domain/profile"
	"wesee/internal/domain/task"
	"wesee/internal/infrastructure/crew"

	"github.com/rs/zerolog"
)

type CVGenerator interface {
	Run(ctx context.Context, doc profile.Document, jobDescription string) (crew.Output, error)
}

type CVJob struct {
	tasks    task.Repository
	profiles ProfileUsecase
	crew     CVGenerator
	log      zerolog.Logger
}

func NewCVJob(tasks task.Repository, profiles ProfileUsecase, gen CVGenerator, l zerolog.Logger) *CVJob {
	return &CVJob{tasks: tasks, profiles: profiles, crew: gen, log: l}
}

func (j *CVJob) Kind() task.Kind { return task.KindCV }

func (j *CVJob) Handle(ctx context.Context, msg task.Message) error {
	return runTask(ctx, j.tasks, j.log, msg, func(ctx context.Context) ([]byte, error) {
		doc, err := j.profiles.Fetch(ctx, msg.LinkedInURL)
		if errors.Is(err, profile.ErrNotFound) {
			return nil, failf("Failed to retrieve LinkedIn data for URL: %s", msg.LinkedInURL)
		}
		if err != nil {
			return nil, err
		}

		j.log.Info().Str("task_id", msg.TaskID).Msg("running cv crew")
		out, err := j.crew.Run(ctx, doc, msg.JobDescription)
		if err != nil {
			return nil, failf("CV creation failed: %v", err)
		}
		return []byte(profile.StripNUL(out.Text())), nil
	})
}
