package secretstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// KeyManager is an external secret-management service. Implementations
// categorize their failures: common.ErrBackendUnavailable for transient
// outages, common.ErrorNotFound for missing references and
// common.ErrAuthorizationFailure or common.ErrAuthenticationFailure for
// rejected service credentials.
type KeyManager interface {
	Seal(ctx context.Context, name string, plaintext []byte) (ref string, err error)
	Unseal(ctx context.Context, ref string) ([]byte, error)
	Destroy(ctx context.Context, ref string) error
}

// KMSBackend forwards plaintext to a KeyManager and stores only the returned
// reference as the record payload.
type KMSBackend struct {
	km     KeyManager
	prefix string
}

// NewKMSBackend wraps km. prefix namespaces the external secret names.
func NewKMSBackend(km KeyManager, prefix string) *KMSBackend {
	return &KMSBackend{km: km, prefix: prefix}
}

func (b *KMSBackend) Kind() models.Backend { return models.BackendExternalKMS }

func (b *KMSBackend) Seal(ctx context.Context, rec *models.SecretRecord, plaintext []byte) ([]byte, error) {
	if b.km == nil {
		return nil, fmt.Errorf("%w: no key manager", common.ErrEncryptionFailure)
	}
	ref, err := b.km.Seal(ctx, recordName(b.prefix, rec), plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryptionFailure, err)
	}
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", common.ErrEncryptionFailure)
	}
	return []byte(ref), nil
}

func (b *KMSBackend) Open(ctx context.Context, rec *models.SecretRecord) ([]byte, error) {
	if len(rec.Payload) == 0 {
		return nil, fmt.Errorf("%w: empty reference", common.ErrIntegrityFailure)
	}
	plaintext, err := b.km.Unseal(ctx, string(rec.Payload))
	if err != nil {
		if categorized(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrIntegrityFailure, err)
	}
	return plaintext, nil
}

// categorized reports whether a key manager already placed err in the
// taxonomy. Only uncategorized failures, such as a garbled reference, are
// integrity failures.
func categorized(err error) bool {
	for _, target := range []error{
		common.ErrorNotFound,
		common.ErrBackendUnavailable,
		common.ErrAuthenticationFailure,
		common.ErrAuthorizationFailure,
		common.ErrorInternal,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (b *KMSBackend) Destroy(ctx context.Context, rec *models.SecretRecord) error {
	if len(rec.Payload) == 0 {
		return nil
	}
	err := b.km.Destroy(ctx, string(rec.Payload))
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}
