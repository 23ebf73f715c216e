package repository

import (
	"context"
	"time"
)

// JobStatus is the lifecycle state of an evaluation job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transitions happen from s.
func (s JobStatus) IsTerminal() bool { return s == JobSucceeded || s == JobFailed }

// EvaluationJob tracks one asynchronous batch evaluation. The request and
// result payloads live in object storage under RequestKey and ResultKey.
type EvaluationJob struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	TemplateID  string     `json:"template_id,omitempty"`
	Queries     int        `json:"queries"`
	RequestKey  string     `json:"request_key"`
	ResultKey   string     `json:"result_key,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobRepository persists EvaluationJobs. Get returns JOB_001 for unknown ids.
type JobRepository interface {
	Create(ctx context.Context, job *EvaluationJob) error
	Get(ctx context.Context, id string) (*EvaluationJob, error)
	// UpdateStatus moves a job to status, recording resultKey and errMsg.
	// Terminal statuses also set CompletedAt.
	UpdateStatus(ctx context.Context, id string, status JobStatus, resultKey, errMsg string) error
}

//Personal.AI order the ending
