package store

import (
	"errors"

	"github.com/jmoiron/sqlx"
)

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN           string
	Type          DatabaseType
	MigrationsDir string
}

// Querier is either the connection pool or an open transaction.
// Every store call takes one explicitly so callers decide the unit of work.
type Querier = sqlx.ExtContext

// ErrConflict is returned when an insert hits a unique constraint.
var ErrConflict = errors.New("row already exists")
