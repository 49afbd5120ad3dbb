package store

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/pressly/goose/v3"
)

// migrationsTable keeps goose bookkeeping out of the way of the
// analyses and search_queries tables.
const migrationsTable = "orbit_schema_migrations"

// Migrate brings the analysis schema up to date from the SQL files in
// internal/store/migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetDialect("postgres")
	goose.SetTableName(migrationsTable)
	return goose.UpContext(ctx, db, filepath.Join("internal", "store", "migrations"))
}
