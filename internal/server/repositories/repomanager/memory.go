package repomanager

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/server/repositories/mappings"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
)

// MemoryRepositoryManager serves in-memory repositories. State is lost on
// restart; it is meant for development and tests.
type MemoryRepositoryManager struct {
	secrets  *secrets.MemoryRepository
	mappings *mappings.MemoryRepository
}

// NewMemoryRepositoryManager builds a manager with empty repositories.
func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		secrets:  secrets.NewMemoryRepository(),
		mappings: mappings.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Secrets() secrets.Repository { return m.secrets }

func (m *MemoryRepositoryManager) Mappings() mappings.Repository { return m.mappings }

func (m *MemoryRepositoryManager) Close() error { return nil }
