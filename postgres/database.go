package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type DB struct {
	*pgxpool.Pool
}

// Initialise a new database connection. connString should be a valid postgres connection string (such as a postgres-url).
func NewDB(ctx context.Context, connString string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}
	return connect(ctx, cfg)
}

// NewDBInSchema connects like [NewDB] but every pooled connection uses the specified schema. If the schema does not
// exist already, this will create it.
// Beware that the schema here is not sanitised, as such this could be used to do SQL injection and should never
// pass on unsanitised user input!
func NewDBInSchema(ctx context.Context, connString string, schema string) (*DB, error) {
	db, err := NewDB(ctx, connString)
	if err != nil {
		return nil, err
	}
	err = db.createSchema(ctx, schema)
	db.Close()
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	slog.Info("Using postgres schema", "schema", schema)
	return connect(ctx, cfg)
}

func connect(ctx context.Context, cfg *pgxpool.Config) (*DB, error) {
	slog.Info("Connecting to postgres database")
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to postgres database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot reach postgres database: %w", err)
	}
	return &DB{pool}, nil
}

func (db *DB) createSchema(ctx context.Context, schema string) error {
	if _, err := db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", schema)); err != nil {
		return fmt.Errorf("cannot create schema %q: %w", schema, err)
	}
	return nil
}

// Delete the specified database schema, beware that this will delete all tables and data in the schema.
// The schema string here is not sanitised, as such this could be used to do SQL injection and should never
// pass on unsanitised user input!
func (db *DB) DeleteSchema(ctx context.Context, schema string) error {
	slog.Info("Deleting postgres schema", "schema", schema)
	if _, err := db.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE;", schema)); err != nil {
		return fmt.Errorf("cannot delete schema '%v': %w", schema, err)
	}
	return nil
}

func (db *DB) createGooseProvider() (*goose.Provider, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("cannot get embedded migrations folder: %w", err)
	}

	return goose.NewProvider(
		goose.DialectPostgres,
		stdlib.OpenDBFromPool(db.Pool),
		migrations,
	)
}

// Migrate runs all embedded migrations that have not been applied yet.
func (db *DB) Migrate(ctx context.Context) error {
	provider, err := db.createGooseProvider()
	if err != nil {
		return fmt.Errorf("cannot create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("cannot run database migrations: %w", err)
	}
	for _, result := range results {
		slog.Info("Applied migration", "source", result.Source.Path, "duration", result.Duration)
	}

	if err := provider.Close(); err != nil {
		return fmt.Errorf("cannot close goose provider connection: %w", err)
	}

	return nil
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	provider, err := db.createGooseProvider()
	if err != nil {
		return fmt.Errorf("cannot create goose provider: %w", err)
	}

	if _, err = provider.Down(ctx); err != nil {
		return fmt.Errorf("cannot run database down migrations: %w", err)
	}

	if err := provider.Close(); err != nil {
		return fmt.Errorf("cannot close goose provider connection: %w", err)
	}

	return nil
}
