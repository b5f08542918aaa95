package dbx

import (
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// TimestampLayout is the text form produced by TimestampColumn.
const TimestampLayout = time.RFC3339

// TimestampColumn renders a SQLite TIMESTAMP column as RFC 3339 UTC text so
// it scans into a string regardless of how the driver treats the column.
func TimestampColumn(col string) string {
	return "strftime('%Y-%m-%dT%H:%M:%SZ', " + col + ")"
}

// ParseTimestamp parses text produced by TimestampColumn.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}
