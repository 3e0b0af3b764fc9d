package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "finledger/internal/errors"
)

// wrapDBError maps a database error to an AppError. PostgreSQL serialization
// failures and deadlocks surface as CONCURRENCY_CONFLICT so the caller can
// retry; everything else is an internal error.
func wrapDBError(err error) *apperrors.AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return apperrors.Wrap(apperrors.ErrConcurrencyConflict, err)
		}
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// isUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
