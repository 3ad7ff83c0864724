package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"wesee/internal/database"
)

var (
	ErrNotFound     = errors.New("task not found")
	ErrEmptyMessage = errors.New("failure message must not be empty")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusStarted Status = "STARTED"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusSuccess, StatusFailure:
		return true
	}
	return false
}

// Kind selects one of the two task tables.
type Kind string

const (
	KindScrape Kind = "scrape"
	KindCV     Kind = "cv"
)

// Record is a row of either task table. Result holds JSON for scrape tasks and raw text for CV tasks.
type Record struct {
	TaskID         string
	Kind           Kind
	LinkedInURL    string
	JobDescription string
	ForceRefresh   bool
	Status         Status
	Result         []byte
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Params are the originating request fields of a task.
type Params struct {
	LinkedInURL    string
	JobDescription string
	ForceRefresh   bool
}

// Message is the queue payload for a task.
type Message struct {
	TaskID         string `json:"task_id"`
	Kind           Kind   `json:"kind"`
	LinkedInURL    string `json:"linkedin_url"`
	JobDescription string `json:"job_description,omitempty"`
	ForceRefresh   bool   `json:"force_refresh,omitempty"`
}

func (r Record) Message() Message {
	return Message{
		TaskID:         r.TaskID,
		Kind:           r.Kind,
		LinkedInURL:    r.LinkedInURL,
		JobDescription: r.JobDescription,
		ForceRefresh:   r.ForceRefresh,
	}
}

func DecodeMessage(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, err
	}
	if m.TaskID == "" {
		return Message{}, errors.New("message has no task_id")
	}
	return m, nil
}

// Repository stores the records of one task kind.
//
// Transitions are conditional: MarkStarted applies only from PENDING, and the terminal marks
// apply only from PENDING or STARTED. A false applied result with a nil error means the record
// exists but was not in a source state.
type Repository interface {
	Kind() Kind
	Create(ctx context.Context, q database.Querier, id string, p Params) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	MarkStarted(ctx context.Context, id string) (bool, error)
	MarkSuccess(ctx context.Context, id string, result []byte) (bool, error)
	MarkFailure(ctx context.Context, id string, message string) (bool, error)
}
