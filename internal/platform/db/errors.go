package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// SQLSTATE codes mapped onto the shared error kinds.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeStringTooLong       = "22001"
)

// Classify wraps a driver error with the matching error kind. The original
// error stays reachable through errors.Is/As.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, shared.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, shared.ErrConflict, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: references a missing row (%s)", op, shared.ErrValidation, pgErr.ConstraintName)
		case codeNotNullViolation, codeCheckViolation, codeStringTooLong:
			return fmt.Errorf("%s: %w: %s", op, shared.ErrValidation, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, shared.ErrStorage, err)
}
