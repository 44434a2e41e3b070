package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres class 23 integrity violation for duplicate keys.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation,
// optionally restricted to the named constraint. Errors from drivers other
// than pgx (the sqlite test harness) fall back to message matching, where the
// constraint name is only checked when the driver includes it.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != uniqueViolationCode {
			return false
		}
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}
