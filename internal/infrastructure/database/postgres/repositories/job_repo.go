package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

type postgresJobRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresJobRepo returns a JobRepository backed by the evaluation_jobs
// table.
func NewPostgresJobRepo(conn *postgres.Connection, log logging.Logger) repository.JobRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresJobRepo{conn: conn, log: log, executor: conn.DB()}
}

func jobNotFound(id string) error {
	return errors.New(errors.ErrCodeJobNotFound, fmt.Sprintf("job %s not found", id))
}

func (r *postgresJobRepo) Create(ctx context.Context, job *repository.EvaluationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = repository.JobPending
	}
	templateID := sql.NullString{String: job.TemplateID, Valid: job.TemplateID != ""}

	err := r.executor.QueryRowContext(ctx, `
		INSERT INTO evaluation_jobs (id, status, template_id, queries, request_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		job.ID, string(job.Status), templateID, job.Queries, job.RequestKey,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create job", logging.JobID(job.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create job")
	}
	return nil
}

func (r *postgresJobRepo) Get(ctx context.Context, id string) (*repository.EvaluationJob, error) {
	if !validID(id) {
		return nil, jobNotFound(id)
	}
	var (
		job        repository.EvaluationJob
		status     string
		templateID sql.NullString
		completed  sql.NullTime
	)
	err := r.executor.QueryRowContext(ctx, `
		SELECT id, status, template_id, queries, request_key, result_key, error, created_at, updated_at, completed_at
		FROM evaluation_jobs WHERE id = $1`, id,
	).Scan(&job.ID, &status, &templateID, &job.Queries, &job.RequestKey, &job.ResultKey, &job.Error,
		&job.CreatedAt, &job.UpdatedAt, &completed)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, jobNotFound(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get job")
	}
	job.Status = repository.JobStatus(status)
	job.TemplateID = templateID.String
	if completed.Valid {
		t := completed.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func (r *postgresJobRepo) UpdateStatus(ctx context.Context, id string, status repository.JobStatus, resultKey, errMsg string) error {
	if !validID(id) {
		return jobNotFound(id)
	}
	res, err := r.executor.ExecContext(ctx, `
		UPDATE evaluation_jobs
		SET status = $2, result_key = $3, error = $4, updated_at = NOW(),
		    completed_at = CASE WHEN $5::boolean THEN NOW() ELSE completed_at END
		WHERE id = $1`,
		id, string(status), resultKey, errMsg, status.IsTerminal())
	if err != nil {
		r.log.Error("failed to update job status", logging.JobID(id), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update job status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return jobNotFound(id)
	}
	return nil
}

//Personal.AI order the ending
