package secretstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// Option customizes a Put or Rotate.
type Option func(*putOptions)

type putOptions struct {
	validation *models.ValidationResult
}

// WithValidation attaches the result that justified storing the secret.
func WithValidation(v *models.ValidationResult) Option {
	return func(o *putOptions) { o.validation = v }
}

// Store is the only component that reads record payloads.
type Store struct {
	repo         secrets.Repository
	backend      Backend
	logger       logging.Logger
	retryBackoff time.Duration

	now   func() time.Time
	newID func() string
}

// NewStore wires a repository and the process-wide backend. retryBackoff is
// the pause before Get retries a transient unseal failure.
func NewStore(repo secrets.Repository, backend Backend, logger logging.Logger, retryBackoff time.Duration) *Store {
	if retryBackoff <= 0 {
		retryBackoff = time.Millisecond
	}
	return &Store{
		repo:         repo,
		backend:      backend,
		logger:       logger.With("module", "secretstore"),
		retryBackoff: retryBackoff,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// BackendKind reports which backend seals new records.
func (s *Store) BackendKind() models.Backend {
	return s.backend.Kind()
}

// Put seals plaintext and makes it the active secret for owner and
// provider, superseding any previous record. Nothing is persisted when
// sealing fails.
func (s *Store) Put(ctx context.Context, owner string, provider models.Provider, plaintext []byte, opts ...Option) (string, error) {
	if owner == "" || !provider.Valid() {
		return "", fmt.Errorf("%w: owner and a supported provider are required", common.ErrorValidation)
	}
	if len(plaintext) == 0 {
		return "", fmt.Errorf("%w: empty secret", common.ErrorValidation)
	}

	var o putOptions
	for _, opt := range opts {
		opt(&o)
	}

	rec := &models.SecretRecord{
		ID:          s.newID(),
		OwnerUserID: owner,
		Provider:    provider,
		Backend:     s.backend.Kind(),
		CreatedAt:   s.now(),
		Validation:  o.validation,
	}

	payload, err := s.backend.Seal(ctx, rec, plaintext)
	if err != nil {
		if !errors.Is(err, common.ErrEncryptionFailure) {
			err = fmt.Errorf("%w: %w", common.ErrEncryptionFailure, err)
		}
		s.logger.Error(ctx, "seal failed", "provider", provider, "error", err)
		return "", err
	}
	rec.Payload = payload

	superseded, err := s.repo.Activate(ctx, rec)
	if err != nil {
		// the external copy must not outlive a record that was never stored
		if derr := s.backend.Destroy(context.WithoutCancel(ctx), rec); derr != nil {
			s.logger.Warn(ctx, "orphaned sealed secret", "record_id", rec.ID, "error", derr)
		}
		return "", fmt.Errorf("activate secret: %w", err)
	}

	s.logger.Info(ctx, "secret activated",
		"record_id", rec.ID, "provider", provider, "backend", rec.Backend, "superseded", superseded)
	return rec.ID, nil
}

// Rotate replaces the active secret for owner and provider. It fails with
// common.ErrorNotFound when there is nothing to rotate.
func (s *Store) Rotate(ctx context.Context, owner string, provider models.Provider, newPlaintext []byte, opts ...Option) (string, error) {
	if _, err := s.repo.Active(ctx, owner, provider); err != nil {
		return "", err
	}
	return s.Put(ctx, owner, provider, newPlaintext, opts...)
}

// Get returns the plaintext behind handle. A transient backend failure is
// retried once after the configured backoff; revoked records are reported
// as common.ErrorNotFound.
func (s *Store) Get(ctx context.Context, handle string) ([]byte, error) {
	rec, err := s.repo.Get(ctx, handle)
	if err != nil {
		return nil, err
	}
	if rec.RevokedAt != nil {
		return nil, fmt.Errorf("secret revoked: %w", common.ErrorNotFound)
	}

	var plaintext []byte
	attempt := 0
	b := retry.WithMaxRetries(1, retry.NewConstant(s.retryBackoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		p, err := s.backend.Open(ctx, rec)
		if err != nil {
			if common.IsRetryable(err) {
				s.logger.Warn(ctx, "unseal failed", "record_id", rec.ID, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		plaintext = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// Revoke retires handle. Revoking an already revoked record succeeds
// without changes. External material is destroyed on a best-effort basis.
func (s *Store) Revoke(ctx context.Context, handle string) error {
	rec, err := s.repo.Get(ctx, handle)
	if err != nil {
		return err
	}

	changed, err := s.repo.Revoke(ctx, handle, s.now())
	if err != nil {
		return fmt.Errorf("revoke secret: %w", err)
	}
	if !changed {
		return nil
	}

	if err := s.backend.Destroy(ctx, rec); err != nil {
		s.logger.Warn(ctx, "destroy external secret failed", "record_id", rec.ID, "error", err)
	}
	s.logger.Info(ctx, "secret revoked", "record_id", rec.ID, "provider", rec.Provider)
	return nil
}

// Active returns metadata of the active record, without its payload.
func (s *Store) Active(ctx context.Context, owner string, provider models.Provider) (*models.SecretRecord, error) {
	rec, err := s.repo.Active(ctx, owner, provider)
	if err != nil {
		return nil, err
	}
	return rec.Metadata(), nil
}

// ActivePlaintext resolves the active record for owner and provider and
// returns its plaintext together with the record metadata.
func (s *Store) ActivePlaintext(ctx context.Context, owner string, provider models.Provider) (*models.SecretRecord, []byte, error) {
	rec, err := s.repo.Active(ctx, owner, provider)
	if err != nil {
		return nil, nil, err
	}
	plaintext, err := s.Get(ctx, rec.ID)
	if err != nil {
		return nil, nil, err
	}
	return rec.Metadata(), plaintext, nil
}
