package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

type postgresTemplateRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresTemplateRepo returns a TemplateRepository backed by the
// filter_templates table.
func NewPostgresTemplateRepo(conn *postgres.Connection, log logging.Logger) repository.TemplateRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresTemplateRepo{conn: conn, log: log, executor: conn.DB()}
}

func templateNotFound(id string) error {
	return errors.New(errors.ErrCodeTemplateNotFound, fmt.Sprintf("template %s not found", id))
}

const templateColumns = `id, name, config, version, created_at, updated_at`

func (r *postgresTemplateRepo) Create(ctx context.Context, rec *repository.TemplateRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode template config")
	}

	err = r.executor.QueryRowContext(ctx, `
		INSERT INTO filter_templates (id, name, config, version)
		VALUES ($1, $2, $3, 1)
		RETURNING version, created_at, updated_at`,
		rec.ID, rec.Name, cfg,
	).Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeConflict, "template already exists")
		}
		r.log.Error("failed to create template", logging.TemplateID(rec.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create template")
	}
	return nil
}

func (r *postgresTemplateRepo) Get(ctx context.Context, id string) (*repository.TemplateRecord, error) {
	if !validID(id) {
		return nil, templateNotFound(id)
	}
	row := r.executor.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM filter_templates WHERE id = $1`, id)
	rec, err := scanTemplate(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, templateNotFound(id)
	}
	return rec, err
}

func (r *postgresTemplateRepo) List(ctx context.Context, opts repository.ListOptions) ([]*repository.TemplateRecord, error) {
	opts = opts.Normalize()
	rows, err := r.executor.QueryContext(ctx, `
		SELECT `+templateColumns+` FROM filter_templates
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`, opts.Skip, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list templates")
	}
	defer rows.Close()

	out := make([]*repository.TemplateRecord, 0)
	for rows.Next() {
		rec, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate templates")
	}
	return out, nil
}

func (r *postgresTemplateRepo) Update(ctx context.Context, rec *repository.TemplateRecord) error {
	if !validID(rec.ID) {
		return templateNotFound(rec.ID)
	}
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode template config")
	}

	var row *sql.Row
	if rec.Version > 0 {
		row = r.executor.QueryRowContext(ctx, `
			UPDATE filter_templates SET name = $2, config = $3, version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $4
			RETURNING version, created_at, updated_at`,
			rec.ID, rec.Name, cfg, rec.Version)
	} else {
		row = r.executor.QueryRowContext(ctx, `
			UPDATE filter_templates SET name = $2, config = $3, version = version + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING version, created_at, updated_at`,
			rec.ID, rec.Name, cfg)
	}

	err = row.Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, sql.ErrNoRows) && rec.Version > 0:
		return missingOrStale(ctx, r.executor, "filter_templates", rec.ID, templateNotFound(rec.ID))
	case stderrors.Is(err, sql.ErrNoRows):
		return templateNotFound(rec.ID)
	default:
		r.log.Error("failed to update template", logging.TemplateID(rec.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update template")
	}
}

func (r *postgresTemplateRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return templateNotFound(id)
	}
	res, err := r.executor.ExecContext(ctx, `DELETE FROM filter_templates WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete template")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return templateNotFound(id)
	}
	return nil
}

func scanTemplate(row scanner) (*repository.TemplateRecord, error) {
	var (
		rec repository.TemplateRecord
		cfg []byte
	)
	if err := row.Scan(&rec.ID, &rec.Name, &cfg, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan template")
	}
	if err := json.Unmarshal(cfg, &rec.Config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode template config")
	}
	return &rec, nil
}

//Personal.AI order the ending
