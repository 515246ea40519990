package dbutil

import "github.com/jmoiron/sqlx"

// Finalize converts ?-style placeholders produced by the SQL builder
// into the $n form Postgres expects.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
