package usecase

import (
	"context"
	"fmt"

	"wesee/internal/domain/task"
)

type TaskStatusUsecase interface {
	Status(ctx context.Context, kind task.Kind, taskID string) (task.Record, error)
}

type TaskStatus struct {
	tasks map[task.Kind]task.Repository
}

func NewTaskStatus(repos ...task.Repository) *TaskStatus {
	tasks := make(map[task.Kind]task.Repository, len(repos))
	for _, r := range repos {
		tasks[r.Kind()] = r
	}
	return &TaskStatus{tasks: tasks}
}

// Status returns the current record, or task.ErrNotFound.
func (u *TaskStatus) Status(ctx context.Context, kind task.Kind, taskID string) (task.Record, error) {
	repo, ok := u.tasks[kind]
	if !ok {
		return task.Record{}, fmt.Errorf("unknown task kind %q", kind)
	}
	if taskID == "" {
		return task.Record{}, task.ErrNotFound
	}
	return repo.Get(ctx, taskID)
}
