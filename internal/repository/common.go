package repository

import (
	"errors"

	"github.com/lib/pq"
)

// isUniqueViolation reports whether an error is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
