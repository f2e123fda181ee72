package mappings

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

type mappingKey struct {
	owner, source, target, label string
}

// MemoryRepository keeps mappings in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[mappingKey]*models.MappingSpec
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[mappingKey]*models.MappingSpec)}
}

func keyOf(s *models.MappingSpec) mappingKey {
	return mappingKey{s.OwnerUserID, s.SourceResourceID, s.TargetResourceID, s.Label}
}

func (r *MemoryRepository) Replace(ctx context.Context, spec *models.MappingSpec) error {
	c := cloneSpec(spec)
	c.Stale = false

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[keyOf(c)] = c
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, owner, id string) (*models.MappingSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k, v := range r.items {
		if k.owner == owner && v.ID == id {
			return cloneSpec(v), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) List(ctx context.Context, owner string) ([]*models.MappingSpec, error) {
	r.mu.RLock()
	out := make([]*models.MappingSpec, 0)
	for k, v := range r.items {
		if k.owner == owner {
			out = append(out, cloneSpec(v))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) MarkStale(ctx context.Context, owner string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, v := range r.items {
		if k.owner == owner && !v.Stale {
			c := cloneSpec(v)
			c.Stale = true
			r.items[k] = c
			n++
		}
	}
	return n, nil
}

func cloneSpec(s *models.MappingSpec) *models.MappingSpec {
	c := *s
	c.Correspondences = append([]models.Correspondence(nil), s.Correspondences...)
	return &c
}
