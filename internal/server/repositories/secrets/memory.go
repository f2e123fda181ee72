package secrets

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

type activeKey struct {
	owner    string
	provider models.Provider
}

// activeSlot holds the id of the active record; nil means none.
type activeSlot struct {
	id atomic.Pointer[string]
}

// MemoryRepository keeps records in process memory. Stored records are never
// mutated: updates publish a modified copy with CompareAndSwap, so readers
// always see a complete record.
type MemoryRepository struct {
	records sync.Map // id -> *models.SecretRecord
	active  sync.Map // activeKey -> *activeSlot
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) slot(owner string, provider models.Provider) *activeSlot {
	v, _ := r.active.LoadOrStore(activeKey{owner, provider}, &activeSlot{})
	return v.(*activeSlot)
}

func (r *MemoryRepository) Activate(ctx context.Context, rec *models.SecretRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, loaded := r.records.LoadOrStore(rec.ID, cloneRecord(rec)); loaded {
		return "", common.ErrActiveConflict
	}

	s := r.slot(rec.OwnerUserID, rec.Provider)
	next := rec.ID
	for {
		prev := s.id.Load()
		if !s.id.CompareAndSwap(prev, &next) {
			continue
		}
		if prev == nil {
			return "", nil
		}
		at := rec.CreatedAt
		r.update(*prev, func(old *models.SecretRecord) bool {
			if old.RotatedAt != nil {
				return false
			}
			old.RotatedAt = &at
			return true
		})
		return *prev, nil
	}
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.SecretRecord, error) {
	v, ok := r.records.Load(id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneRecord(v.(*models.SecretRecord)), nil
}

func (r *MemoryRepository) Active(ctx context.Context, owner string, provider models.Provider) (*models.SecretRecord, error) {
	v, ok := r.active.Load(activeKey{owner, provider})
	if !ok {
		return nil, common.ErrorNotFound
	}
	id := v.(*activeSlot).id.Load()
	if id == nil {
		return nil, common.ErrorNotFound
	}
	return r.Get(ctx, *id)
}

func (r *MemoryRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	v, ok := r.records.Load(id)
	if !ok {
		return false, common.ErrorNotFound
	}
	rec := v.(*models.SecretRecord)

	changed := r.update(id, func(old *models.SecretRecord) bool {
		if old.RevokedAt != nil {
			return false
		}
		old.RevokedAt = &at
		return true
	})

	s := r.slot(rec.OwnerUserID, rec.Provider)
	if cur := s.id.Load(); cur != nil && *cur == id {
		// A concurrent Activate may win; then id is no longer active anyway.
		s.id.CompareAndSwap(cur, nil)
	}
	return changed, nil
}

// update applies fn to a copy of the stored record and publishes it.
// fn returns false to leave the record untouched.
func (r *MemoryRepository) update(id string, fn func(*models.SecretRecord) bool) bool {
	for {
		v, ok := r.records.Load(id)
		if !ok {
			return false
		}
		cur := v.(*models.SecretRecord)
		next := cloneRecord(cur)
		if !fn(next) {
			return false
		}
		if r.records.CompareAndSwap(id, cur, next) {
			return true
		}
	}
}

func cloneRecord(rec *models.SecretRecord) *models.SecretRecord {
	c := *rec
	c.Payload = append([]byte(nil), rec.Payload...)
	if rec.Validation != nil {
		v := *rec.Validation
		v.CapabilitySummary = append([]string(nil), rec.Validation.CapabilitySummary...)
		c.Validation = &v
	}
	return &c
}
