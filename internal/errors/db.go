package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ClassifyDBError maps a database error onto the application taxonomy so
// callers can branch on the category instead of on driver internals.
func ClassifyDBError(err error, operation string) *AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, operation+" timed out")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return Wrap(err, ErrCodeConflict, operation+" violates a unique constraint")
		case pgerrcode.ForeignKeyViolation:
			return Wrap(err, ErrCodeValidation, operation+" references a missing row")
		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
			return Wrap(err, ErrCodeValidation, operation+" violates a constraint")
		}
	}

	return Wrap(err, ErrCodeInternal, operation+" failed")
}
