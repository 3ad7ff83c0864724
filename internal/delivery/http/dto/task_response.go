package dto

import (
	"encoding/json"
	"time"

	"wesee/internal/domain/task"
)

type CVTaskCreatedResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ScrapeTaskCreatedResponse struct {
	Success   bool   `json:"success"`
	TaskID    string `json:"task_id"`
	Message   string `json:"message"`
	StatusURL string `json:"status_url"`
}

// CVTaskStatusResponse omits cv_content unless SUCCESS and error unless FAILURE.
type CVTaskStatusResponse struct {
	TaskID      string    `json:"task_id"`
	Status      string    `json:"status"`
	LinkedInURL string    `json:"linkedin_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CVContent   string    `json:"cv_content,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ScrapeTaskStatusResponse omits result unless SUCCESS and error_message unless FAILURE.
type ScrapeTaskStatusResponse struct {
	TaskID       string          `json:"task_id"`
	Status       string          `json:"status"`
	LinkedInURL  string          `json:"linkedin_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func NewCVTaskStatusResponse(r task.Record) CVTaskStatusResponse {
	res := CVTaskStatusResponse{
		TaskID:      r.TaskID,
		Status:      string(r.Status),
		LinkedInURL: r.LinkedInURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	switch r.Status {
	case task.StatusSuccess:
		res.CVContent = string(r.Result)
	case task.StatusFailure:
		res.Error = r.ErrorMessage
	}
	return res
}

func NewScrapeTaskStatusResponse(r task.Record) ScrapeTaskStatusResponse {
	res := ScrapeTaskStatusResponse{
		TaskID:      r.TaskID,
		Status:      string(r.Status),
		LinkedInURL: r.LinkedInURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	switch r.Status {
	case task.StatusSuccess:
		if json.Valid(r.Result) {
			res.Result = json.RawMessage(r.Result)
		}
	case task.StatusFailure:
		res.ErrorMessage = r.ErrorMessage
	}
	return res
}
