package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/gradebook/internal/store"
	"github.com/shrimpsizemoose/gradebook/internal/store/postgres"
	"github.com/shrimpsizemoose/gradebook/internal/store/sqlite"
)

// DBConfigFromDSN infers the dialect from the DSN scheme; anything not postgres is a sqlite file.
func DBConfigFromDSN(dsn, migrationsDir string) store.DBConfig {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}
	return store.DBConfig{DSN: dsn, Type: dbType, MigrationsDir: migrationsDir}
}

func NewStore(cfg store.DBConfig) (store.GradeStore, error) {
	switch cfg.Type {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(cfg.DSN, cfg.MigrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(cfg.DSN, cfg.MigrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", cfg.DSN)
	}
}
