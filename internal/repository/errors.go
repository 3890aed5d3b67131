package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Generic failure kinds. Entity specific errors wrap one of these so callers
// can match with errors.Is without knowing the entity.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInUse            = errors.New("still referenced")
	ErrInvalidReference = errors.New("references a missing record")
)

// RowError locates the failing element of a batch write. Index is 0-based.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index+1, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

// mapWriteError translates constraint violations on insert/update
func mapWriteError(err error, exists error, op string) error {
	switch {
	case isUniqueViolation(err):
		return exists
	case isForeignKeyViolation(err):
		return ErrInvalidReference
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

// mapDeleteError translates a foreign key violation on delete into inUse
func mapDeleteError(err error, inUse error, op string) error {
	if isForeignKeyViolation(err) {
		return inUse
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// uuidStrings prepares ids for an ANY($n::text[]::uuid[]) parameter
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
