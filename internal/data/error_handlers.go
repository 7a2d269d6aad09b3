package data

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"edupro/internal/errdefs"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// handleError translates a driver error on the named entity into the
// errdefs sentinels the services branch on. A foreign key violation means
// the row being written points at something that is gone.
func handleError(entity string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %w", entity, errdefs.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s %w", entity, errdefs.ErrAlreadyExists)
		case foreignKeyViolation:
			return fmt.Errorf("%s references a row that was %w", entity, errdefs.ErrNotFound)
		case checkViolation:
			return fmt.Errorf("%s violates %s: %w", entity, pgErr.ConstraintName, errdefs.ErrValidation)
		}
	}
	return fmt.Errorf("%s repository: %w", entity, err)
}
