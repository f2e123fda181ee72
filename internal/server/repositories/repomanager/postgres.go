package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/server/migrations"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/mappings"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories sharing one
// connection pool and exposes the schema migration hook.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresRepositoryManager opens dsn with the pgx driver, checks the
// connection and applies pending migrations.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := &PostgresRepositoryManager{db: db}
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

// Secrets returns a secrets.Repository on the shared pool.
func (m *PostgresRepositoryManager) Secrets() secrets.Repository {
	return secrets.NewPostgresRepository(m.db)
}

// Mappings returns a mappings.Repository on the shared pool.
func (m *PostgresRepositoryManager) Mappings() mappings.Repository {
	return mappings.NewPostgresRepository(m.db)
}

// Close releases the connection pool.
func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
