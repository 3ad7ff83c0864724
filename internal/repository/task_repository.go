package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wesee/internal/database"
	"wesee/internal/domain/task"
)

// PostgresTaskRepository serves one task table. The scrape and CV tables share the state
// machine and differ in their request columns and result type.
type PostgresTaskRepository struct {
	db    database.DB
	kind  task.Kind
	table string
}

func NewScrapeTaskRepository(db database.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db, kind: task.KindScrape, table: "scrape_tasks"}
}

func NewCVTaskRepository(db database.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db, kind: task.KindCV, table: "cv_tasks"}
}

var _ task.Repository = (*PostgresTaskRepository)(nil)

func (r *PostgresTaskRepository) Kind() task.Kind {
	return r.kind
}

func (r *PostgresTaskRepository) Create(ctx context.Context, q database.Querier, id string, p task.Params) (task.Record, error) {
	if q == nil {
		q = r.db
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return task.Record{}, errors.New("empty task id")
	}

	rec := task.Record{
		TaskID:      id,
		Kind:        r.kind,
		LinkedInURL: p.LinkedInURL,
		Status:      task.StatusPending,
	}

	var row database.Row
	switch r.kind {
	case task.KindCV:
		rec.JobDescription = p.JobDescription
		row = q.QueryRow(ctx,
			`INSERT INTO cv_tasks (task_id, linkedin_url, job_description, status)
			 VALUES ($1, $2, $3, 'PENDING')
			 RETURNING created_at, updated_at`,
			id, p.LinkedInURL, p.JobDescription,
		)
	default:
		rec.ForceRefresh = p.ForceRefresh
		row = q.QueryRow(ctx,
			`INSERT INTO scrape_tasks (task_id, linkedin_url, force_refresh, status)
			 VALUES ($1, $2, $3, 'PENDING')
			 RETURNING created_at, updated_at`,
			id, p.LinkedInURL, p.ForceRefresh,
		)
	}
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return task.Record{}, fmt.Errorf("create %s task: %w", r.kind, err)
	}
	return rec, nil
}

func (r *PostgresTaskRepository) Get(ctx context.Context, id string) (task.Record, error) {
	var query string
	switch r.kind {
	case task.KindCV:
		query = `SELECT task_id, linkedin_url, job_description, false, status, result, error_message, created_at, updated_at
		 FROM cv_tasks WHERE task_id = $1`
	default:
		query = `SELECT task_id, linkedin_url, '', force_refresh, status, result::text, error_message, created_at, updated_at
		 FROM scrape_tasks WHERE task_id = $1`
	}

	var rec task.Record
	var status string
	var result, errMsg *string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.TaskID, &rec.LinkedInURL, &rec.JobDescription, &rec.ForceRefresh,
		&status, &result, &errMsg, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return task.Record{}, task.ErrNotFound
		}
		return task.Record{}, fmt.Errorf("get %s task: %w", r.kind, err)
	}

	rec.Kind = r.kind
	rec.Status = task.Status(status)
	if result != nil {
		rec.Result = []byte(*result)
	}
	if errMsg != nil {
		rec.ErrorMessage = *errMsg
	}
	return rec, nil
}

func (r *PostgresTaskRepository) MarkStarted(ctx context.Context, id string) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE `+r.table+` SET status = 'STARTED', updated_at = now()
		 WHERE task_id = $1 AND status = 'PENDING'`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark %s task started: %w", r.kind, err)
	}
	return r.applied(ctx, id, n)
}

func (r *PostgresTaskRepository) MarkSuccess(ctx context.Context, id string, result []byte) (bool, error) {
	var query string
	switch r.kind {
	case task.KindCV:
		query = `UPDATE cv_tasks SET status = 'SUCCESS', result = $2, error_message = NULL, updated_at = now()
		 WHERE task_id = $1 AND status IN ('PENDING', 'STARTED')`
	default:
		if !json.Valid(result) {
			return false, fmt.Errorf("mark scrape task success: result is not valid JSON")
		}
		query = `UPDATE scrape_tasks SET status = 'SUCCESS', result = $2::jsonb, error_message = NULL, updated_at = now()
		 WHERE task_id = $1 AND status IN ('PENDING', 'STARTED')`
	}

	n, err := r.db.Exec(ctx, query, id, string(result))
	if err != nil {
		return false, fmt.Errorf("mark %s task success: %w", r.kind, err)
	}
	return r.applied(ctx, id, n)
}

func (r *PostgresTaskRepository) MarkFailure(ctx context.Context, id string, message string) (bool, error) {
	if strings.TrimSpace(message) == "" {
		return false, task.ErrEmptyMessage
	}
	n, err := r.db.Exec(ctx,
		`UPDATE `+r.table+` SET status = 'FAILURE', result = NULL, error_message = $2, updated_at = now()
		 WHERE task_id = $1 AND status IN ('PENDING', 'STARTED')`,
		id, message,
	)
	if err != nil {
		return false, fmt.Errorf("mark %s task failure: %w", r.kind, err)
	}
	return r.applied(ctx, id, n)
}

// applied separates "not in a source state" from "no such record" when an update matched nothing.
func (r *PostgresTaskRepository) applied(ctx context.Context, id string, affected int64) (bool, error) {
	if affected > 0 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+r.table+` WHERE task_id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s task: %w", r.kind, err)
	}
	if !exists {
		return false, task.ErrNotFound
	}
	return false, nil
}
