package secretstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
)

// fakeKeyManager keeps secrets in memory and lets tests inject failures.
type fakeKeyManager struct {
	mu        sync.Mutex
	secrets   map[string][]byte
	sealErr   error
	unsealErr []error // consumed one per Unseal call
	destroyed []string
	unseals   int
}

func newFakeKeyManager() *fakeKeyManager {
	return &fakeKeyManager{secrets: map[string][]byte{}}
}

func (f *fakeKeyManager) Seal(ctx context.Context, name string, plaintext []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sealErr != nil {
		return "", f.sealErr
	}
	ref := "ref:" + name
	f.secrets[ref] = append([]byte(nil), plaintext...)
	return ref, nil
}

func (f *fakeKeyManager) Unseal(ctx context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unseals++
	if len(f.unsealErr) > 0 {
		err := f.unsealErr[0]
		f.unsealErr = f.unsealErr[1:]
		if err != nil {
			return nil, err
		}
	}
	p, ok := f.secrets[ref]
	if !ok {
		return nil, fmt.Errorf("fake: %w", common.ErrorNotFound)
	}
	return append([]byte(nil), p...), nil
}

func (f *fakeKeyManager) Destroy(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, ref)
	delete(f.secrets, ref)
	return nil
}

func (f *fakeKeyManager) unsealCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unseals
}

// failingRepo fails Activate and delegates the rest.
type failingRepo struct {
	secrets.Repository
	err error
}

func (r failingRepo) Activate(ctx context.Context, rec *models.SecretRecord) (string, error) {
	return "", r.err
}

func testKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func newLocalStore() (*Store, *secrets.MemoryRepository) {
	b, err := NewLocalBackend(testKey())
	if err != nil {
		panic(err)
	}
	repo := secrets.NewMemoryRepository()
	return NewStore(repo, b, logging.Nop{}, time.Millisecond), repo
}

func newKMSStore() (*Store, *secrets.MemoryRepository, *fakeKeyManager) {
	km := newFakeKeyManager()
	repo := secrets.NewMemoryRepository()
	return NewStore(repo, NewKMSBackend(km, "xconnect"), logging.Nop{}, time.Millisecond), repo, km
}
