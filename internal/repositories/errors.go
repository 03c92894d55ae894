package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a row with the same key or unique value already exists.
	ErrConflict = errors.New("record conflict")
	// ErrUnsupportedQuery indicates a list query the document table cannot express.
	ErrUnsupportedQuery = errors.New("unsupported query")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
