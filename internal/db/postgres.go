package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresMigrationsTable keeps chatbridge's migration state apart from
// other applications sharing the database.
const postgresMigrationsTable = "chatbridge_schema_migrations"

// OpenPostgres applies the Postgres migrations and returns a connection
// pool. dsn must be a postgres:// or postgresql:// URL. Postgres holds only
// the shared dedup window; the delivery log stays in SQLite.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if err := migratePostgres(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

func migratePostgres(dsn string) error {
	migrateURL, err := postgresMigrateURL(dsn)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// postgresMigrateURL rewrites dsn for the pgx5 migration driver.
func postgresMigrateURL(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("postgres dsn must be a postgres:// URL, got scheme %q", u.Scheme)
	}
	u.Scheme = "pgx5"
	q := u.Query()
	q.Set("x-migrations-table", postgresMigrationsTable)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
