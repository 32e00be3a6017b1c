package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no row matches, including rows already past the wanted state
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyCheckedIn is returned when the plate already has an IN row
	ErrAlreadyCheckedIn = errors.New("vehicle already checked in")

	// ErrPlateExists is returned when the database rejects the plate through its unique index
	ErrPlateExists = errors.New("vehicle with this plate number already exists")

	// ErrAlreadyPreRegistered is returned for a second same-day pre-registration
	ErrAlreadyPreRegistered = errors.New("visitor already pre-registered today")

	// ErrUsernameTaken is returned when the username already exists
	ErrUsernameTaken = errors.New("username already exists")
)

const uniqueViolation = "23505"

// isUniqueViolation recognises unique-constraint errors from both supported drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}

	return false
}
