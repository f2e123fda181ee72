// Package secrets stores immutable SecretRecord generations and the single
// active pointer per (owner, provider).
package secrets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// Repository persists secret records. Implementations must flip the active
// pointer atomically so two records are never active for the same pair.
type Repository interface {
	// Activate inserts rec and makes it the active record for its owner and
	// provider. The superseded record (if any) gets RotatedAt stamped and its
	// id is returned; otherwise the returned id is empty.
	Activate(ctx context.Context, rec *models.SecretRecord) (string, error)
	// Get returns a record by id, payload included.
	// Unknown ids yield common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.SecretRecord, error)
	// Active returns the active record for owner and provider, or
	// common.ErrorNotFound.
	Active(ctx context.Context, owner string, provider models.Provider) (*models.SecretRecord, error)
	// Revoke stamps RevokedAt and clears the active pointer if it still
	// targets id. It reports false when the record was already revoked.
	Revoke(ctx context.Context, id string, at time.Time) (bool, error)
}
