package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTicketID is returned when a ticket id is already taken.
	ErrDuplicateTicketID = errors.New("ticket id already exists")
	// ErrDuplicateUsername is returned when an admin username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

const uniqueViolation = "23505"

func translateNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// parseID canonicalizes a primary key. Malformed ids cannot match any row, so they map to
// ErrNotFound without a round trip and the comparison stays on the uuid index.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return parsed.String(), nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
