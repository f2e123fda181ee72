package secretstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/cryptox"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// LocalBackend seals with AES-256-GCM. The ciphertext is bound to the
// record's identity through the GCM additional data, so a payload copied
// onto another record fails to open.
type LocalBackend struct {
	cipher *cryptox.Cipher
}

// NewLocalBackend builds a LocalBackend from a 32-byte key.
func NewLocalBackend(key []byte) (*LocalBackend, error) {
	c, err := cryptox.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryptionFailure, err)
	}
	return &LocalBackend{cipher: c}, nil
}

func (b *LocalBackend) Kind() models.Backend { return models.BackendLocalEncrypted }

func (b *LocalBackend) Seal(ctx context.Context, rec *models.SecretRecord, plaintext []byte) ([]byte, error) {
	if b == nil || b.cipher == nil {
		return nil, fmt.Errorf("%w: no key material", common.ErrEncryptionFailure)
	}
	return b.cipher.Seal(plaintext, additionalData(rec)), nil
}

func (b *LocalBackend) Open(ctx context.Context, rec *models.SecretRecord) ([]byte, error) {
	if b == nil || b.cipher == nil {
		return nil, fmt.Errorf("%w: no key material", common.ErrIntegrityFailure)
	}
	plaintext, err := b.cipher.Open(rec.Payload, additionalData(rec))
	if err != nil {
		return nil, common.ErrIntegrityFailure
	}
	return plaintext, nil
}

// Destroy is a no-op: the ciphertext lives only in the record.
func (b *LocalBackend) Destroy(ctx context.Context, rec *models.SecretRecord) error { return nil }

func additionalData(rec *models.SecretRecord) []byte {
	return []byte(recordName("", rec))
}
