package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/chemtemplates/pkg/errors"
)

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// validID reports whether id can address a UUID primary key. Malformed ids
// are treated as missing rows instead of driver errors.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// missingOrStale distinguishes a lost optimistic-lock race from a missing
// row after a versioned UPDATE matched nothing.
func missingOrStale(ctx context.Context, exec queryExecutor, table, id string, notFound error) error {
	var exists bool
	err := exec.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check row existence")
	}
	if !exists {
		return notFound
	}
	return errors.Conflict("version mismatch: the record was modified concurrently")
}

//Personal.AI order the ending
