package storage

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// isUniqueConstraintErr reports whether err is a sqlite UNIQUE constraint
// violation on the cache table's primary key.
func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
