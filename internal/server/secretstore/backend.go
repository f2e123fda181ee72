// Package secretstore seals, stores and retrieves credential material.
//
// A Store owns the secret records and delegates sealing to exactly one
// Backend chosen at process start: LocalBackend (AES-256-GCM with a
// configured key) or KMSBackend (an external KeyManager holding the
// plaintext, with only its reference stored locally).
package secretstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// Backend turns plaintext into a record payload and back.
type Backend interface {
	// Kind is recorded on every SecretRecord sealed by this backend.
	Kind() models.Backend
	// Seal returns the payload to store for rec. rec carries identity
	// fields only. Failures match common.ErrEncryptionFailure.
	Seal(ctx context.Context, rec *models.SecretRecord, plaintext []byte) ([]byte, error)
	// Open recovers the plaintext of rec. Tampering or a wrong key match
	// common.ErrIntegrityFailure, a missing external secret
	// common.ErrorNotFound and a transient outage
	// common.ErrBackendUnavailable.
	Open(ctx context.Context, rec *models.SecretRecord) ([]byte, error)
	// Destroy releases whatever the backend holds for rec outside the
	// record itself. It is idempotent.
	Destroy(ctx context.Context, rec *models.SecretRecord) error
}

// recordName is the stable external name of a record:
// <prefix>/<owner>/<provider>/<record id>.
func recordName(prefix string, rec *models.SecretRecord) string {
	if prefix == "" {
		return fmt.Sprintf("%s/%s/%s", rec.OwnerUserID, rec.Provider, rec.ID)
	}
	return fmt.Sprintf("%s/%s/%s/%s", prefix, rec.OwnerUserID, rec.Provider, rec.ID)
}
