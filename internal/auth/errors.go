package auth

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrAlreadyExists is returned when registration collides on email or id.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and password mismatch,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken collapses signature failure, ledger miss,
	// revocation and ledger expiry into one outward error.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrTokenNotFound is returned by a ledger when no row matches a hash.
	ErrTokenNotFound = errors.New("refresh token not found")
)

// ValidationError rejects malformed input before any storage access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// isUniqueViolation reports whether a storage error is a Postgres
// unique-constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
