package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether err carries PostgreSQL SQLSTATE 23505,
// raised when two writers race to insert the same natural key.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}

// MapError translates database errors to domain errors.
// sql.ErrNoRows becomes notFoundErr and a unique violation becomes duplicateErr,
// wrapped so the driver error stays inspectable. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	if IsUniqueViolation(err) {
		return errors.Join(duplicateErr, err)
	}

	return err
}
