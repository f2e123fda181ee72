// Package mappings persists committed MappingSpecs.
package mappings

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// Repository stores mappings keyed by (owner, source, target, label).
type Repository interface {
	// Replace stores spec, replacing any mapping with the same key as a whole.
	// The stored mapping is never stale.
	Replace(ctx context.Context, spec *models.MappingSpec) error
	// Get returns one of owner's mappings or common.ErrorNotFound.
	Get(ctx context.Context, owner, id string) (*models.MappingSpec, error)
	// List returns owner's mappings ordered by creation time.
	List(ctx context.Context, owner string) ([]*models.MappingSpec, error)
	// MarkStale flags every mapping of owner stale and returns how many
	// changed. Mappings are never deleted.
	MarkStale(ctx context.Context, owner string) (int64, error)
}
