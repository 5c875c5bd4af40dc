package storage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
)

const pgUniqueViolation = "23505"

// IsDuplicate reports whether err is a unique-constraint violation.
// GORM translates these on both drivers; the pgconn check covers raw
// statements that bypass translation.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// WrapError converts a driver failure into the domain taxonomy:
// unique-constraint collisions become conflicts, everything else a
// persistence error. Both keep the driver error as cause.
func WrapError(op string, err error) *internal.AppError {
	if IsDuplicate(err) {
		return internal.NewConflictError("a record with the same unique value already exists", internal.ErrCodeUniqueViolation).WithCause(err)
	}
	return internal.NewPersistenceError(op+" failed", err)
}
