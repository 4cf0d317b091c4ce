package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"taskmirror/internal/service"
)

// PostgreSQL error codes
const (
	// checkViolationCode is the PostgreSQL error code for check constraint violations
	checkViolationCode = "23514"

	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"

	// invalidTextRepresentationCode is raised when a value cannot be cast,
	// e.g. a malformed uuid literal.
	invalidTextRepresentationCode = "22P02"
)

// MapError maps a database error to a service-level error, wrapping the
// original so the driver detail stays available for debugging.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", service.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %v",
				service.ErrInvalidTask, pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %v",
				service.ErrInvalidTask, pgErr.ColumnName, err)
		case invalidTextRepresentationCode:
			return fmt.Errorf("%w: %v", service.ErrNotFound, err)
		}
	}

	return err
}

// checkRowsAffected returns service.ErrNotFound when an UPDATE or DELETE
// touched no rows.
func checkRowsAffected(result sql.Result, id string) error {
	if result == nil {
		return fmt.Errorf("nil result provided to checkRowsAffected")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: task %s", service.ErrNotFound, id)
	}
	return nil
}
