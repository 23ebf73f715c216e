package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

type postgresAssemblySchemaRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresAssemblySchemaRepo returns an AssemblySchemaRepository backed
// by the assembly_schemas table.
func NewPostgresAssemblySchemaRepo(conn *postgres.Connection, log logging.Logger) repository.AssemblySchemaRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresAssemblySchemaRepo{conn: conn, log: log, executor: conn.DB()}
}

func schemaNotFound(id string) error {
	return errors.New(errors.ErrCodeAssemblySchemaNotFound, fmt.Sprintf("assembly schema %s not found", id))
}

const schemaColumns = `id, name, assembly_type, schema, version, created_at, updated_at`

func (r *postgresAssemblySchemaRepo) Create(ctx context.Context, rec *repository.AssemblySchemaRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err := r.executor.QueryRowContext(ctx, `
		INSERT INTO assembly_schemas (id, name, assembly_type, schema, version)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING version, created_at, updated_at`,
		rec.ID, rec.Name, string(rec.AssemblyType), []byte(rec.Schema),
	).Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeConflict, "assembly schema already exists")
		}
		r.log.Error("failed to create assembly schema", logging.SchemaID(rec.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create assembly schema")
	}
	return nil
}

func (r *postgresAssemblySchemaRepo) Get(ctx context.Context, id string) (*repository.AssemblySchemaRecord, error) {
	if !validID(id) {
		return nil, schemaNotFound(id)
	}
	row := r.executor.QueryRowContext(ctx, `SELECT `+schemaColumns+` FROM assembly_schemas WHERE id = $1`, id)
	rec, err := scanSchema(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, schemaNotFound(id)
	}
	return rec, err
}

func (r *postgresAssemblySchemaRepo) List(ctx context.Context, opts repository.ListOptions) ([]*repository.AssemblySchemaRecord, error) {
	opts = opts.Normalize()
	rows, err := r.executor.QueryContext(ctx, `
		SELECT `+schemaColumns+` FROM assembly_schemas
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`, opts.Skip, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list assembly schemas")
	}
	defer rows.Close()

	out := make([]*repository.AssemblySchemaRecord, 0)
	for rows.Next() {
		rec, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate assembly schemas")
	}
	return out, nil
}

func (r *postgresAssemblySchemaRepo) Update(ctx context.Context, rec *repository.AssemblySchemaRecord) error {
	if !validID(rec.ID) {
		return schemaNotFound(rec.ID)
	}
	query := `
		UPDATE assembly_schemas SET name = $2, assembly_type = $3, schema = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1`
	args := []interface{}{rec.ID, rec.Name, string(rec.AssemblyType), []byte(rec.Schema)}
	if rec.Version > 0 {
		query += ` AND version = $5`
		args = append(args, rec.Version)
	}
	query += ` RETURNING version, created_at, updated_at`

	err := r.executor.QueryRowContext(ctx, query, args...).Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, sql.ErrNoRows) && rec.Version > 0:
		return missingOrStale(ctx, r.executor, "assembly_schemas", rec.ID, schemaNotFound(rec.ID))
	case stderrors.Is(err, sql.ErrNoRows):
		return schemaNotFound(rec.ID)
	default:
		r.log.Error("failed to update assembly schema", logging.SchemaID(rec.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update assembly schema")
	}
}

func (r *postgresAssemblySchemaRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return schemaNotFound(id)
	}
	res, err := r.executor.ExecContext(ctx, `DELETE FROM assembly_schemas WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete assembly schema")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schemaNotFound(id)
	}
	return nil
}

func scanSchema(row scanner) (*repository.AssemblySchemaRecord, error) {
	var (
		rec    repository.AssemblySchemaRecord
		family string
		schema []byte
	)
	if err := row.Scan(&rec.ID, &rec.Name, &family, &schema, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan assembly schema")
	}
	rec.AssemblyType = assembly.Family(family)
	rec.Schema = append([]byte(nil), schema...)
	return &rec, nil
}

//Personal.AI order the ending
