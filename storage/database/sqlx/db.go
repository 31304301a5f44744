// Package sqlxrepos implements the repositories on top of Postgres with sqlx.
package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core"
)

const (
	uniqueViolation    = "23505" // Postgres unique constraint violation
	adminShutdown      = "57P01"
	connectionExcClass = "08"
)

// NewDB wraps a Postgres connection opened with `database.Open`.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isConnectionLost(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && (pqErr.Code == adminShutdown || pqErr.Code.Class() == connectionExcClass)
}

// wrapErr annotates `err` with `msg`. A lost database connection becomes a shutdown error so the
// API stops and gets restarted.
func wrapErr(err error, msg string) error {
	if isConnectionLost(err) {
		return errors.Wrap(core.NewShutdownError("database connection lost: "+err.Error()), msg)
	}
	return errors.Wrap(err, msg)
}

// trapNoRowsErr maps psql "no rows" err to `notFound`.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return wrapErr(err, msg)
}

// orderBy renders orderings into an ORDER BY clause. Fields must have been checked by core.ParseOrdering.
func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	clause := " ORDER BY "
	for i, ord := range ordering {
		if i > 0 {
			clause += ", "
		}
		clause += ord.String()
	}
	return clause
}
