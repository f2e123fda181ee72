// Package repomanager vends the repositories used by the server, backed
// either by PostgreSQL or by process memory.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/server/repositories/mappings"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
)

// RepositoryManager owns the storage connection and hands out repositories.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Secrets() secrets.Repository
	Mappings() mappings.Repository
	Close() error
}

// New returns a PostgreSQL manager for a non-empty dsn and an in-memory
// manager otherwise.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewMemoryRepositoryManager(), nil
	}
	return NewPostgresRepositoryManager(ctx, dsn)
}
