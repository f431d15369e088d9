// Package repositories contains the database access layer.
package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the MySQL error number for a violated unique index.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique-constraint violation.
// Duplicate keys are an expected outcome for slug inserts and racing vote
// creations, so callers translate them instead of failing.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
