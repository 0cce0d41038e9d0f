package db

import "strings"

// IsDatabaseClosed checks if an error indicates the database connection is
// closed. database/sql returns an unexported error value, so the message is
// matched.
func IsDatabaseClosed(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database is closed")
}

// IsMissingSchema reports whether err comes from querying a database that
// was never migrated.
func IsMissingSchema(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
