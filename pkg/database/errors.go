package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bookstore-fulfillment/pkg/apperror"
)

// PostgreSQL SQLSTATE codes that mean "someone else holds the row, try again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

var ErrConflict = apperror.Conflict("DB_CONFLICT", "concurrent update, please retry")

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to one constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsNoRows wraps the pgx sentinel so repositories don't import pgx just for it.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// TranslateError maps lock contention and unique races to ErrConflict.
// Errors that are already typed are returned untouched.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgUniqueViolation:
			return ErrConflict.Wrap(err)
		}
	}
	return err
}
