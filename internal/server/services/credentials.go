package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/mappings"
	"github.com/dmitrijs2005/xconnect/internal/server/secretstore"
)

// CredentialService runs the credential lifecycle: validate, commit,
// revoke and report.
type CredentialService struct {
	validator Validator
	store     *secretstore.Store
	mappings  mappings.Repository
	logger    logging.Logger
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(v Validator, store *secretstore.Store, m mappings.Repository, logger logging.Logger) *CredentialService {
	return &CredentialService{
		validator: v,
		store:     store,
		mappings:  m,
		logger:    logger.With("module", "credentials"),
	}
}

// Submit validates cred against its provider and, only on success, stores
// it as the owner's active credential. A rejected, cancelled or timed-out
// submission leaves any previous credential active and untouched.
func (s *CredentialService) Submit(ctx context.Context, owner string, cred *models.Credential) (*models.ValidationResult, error) {
	if owner == "" {
		return nil, common.ErrorUnauthorized
	}

	res, err := s.validator.Validate(ctx, cred)
	if err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plaintext, err := cred.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: encode credential", common.ErrorInternal)
	}
	defer common.WipeByteArray(plaintext)
	if _, err := s.store.Put(ctx, owner, cred.Provider, plaintext, secretstore.WithValidation(res)); err != nil {
		s.logger.Error(ctx, "store credential", "provider", cred.Provider, "error", err)
		return nil, err
	}
	return res, nil
}

// RevokeCredential retires the owner's active credential for provider and
// flags the owner's mappings stale. Revoking when nothing is active is a
// no-op.
func (s *CredentialService) RevokeCredential(ctx context.Context, owner string, provider models.Provider) error {
	if !provider.Valid() {
		return fmt.Errorf("%w: unsupported provider %q", common.ErrorValidation, provider)
	}
	rec, err := s.store.Active(ctx, owner, provider)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.store.Revoke(ctx, rec.ID); err != nil {
		return err
	}

	n, err := s.mappings.MarkStale(ctx, owner)
	if err != nil {
		return fmt.Errorf("mark mappings stale: %w", err)
	}
	s.logger.Info(ctx, "credential revoked", "provider", provider, "stale_mappings", n)
	return nil
}

// ListIntegrations reports the connection state of every provider.
func (s *CredentialService) ListIntegrations(ctx context.Context, owner string) ([]models.IntegrationStatus, error) {
	out := make([]models.IntegrationStatus, 0, len(models.Providers()))
	for _, p := range models.Providers() {
		st := models.IntegrationStatus{Provider: p}
		rec, err := s.store.Active(ctx, owner, p)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return nil, err
		default:
			created := rec.CreatedAt
			st.Connected = true
			st.Backend = rec.Backend
			st.ConnectedAt = &created
			st.LastValidation = rec.Validation
		}
		out = append(out, st)
	}
	return out, nil
}

// ActiveCredential decrypts the owner's active credential for provider.
// The result must only be handed to an integration client.
func (s *CredentialService) ActiveCredential(ctx context.Context, owner string, provider models.Provider) (*models.Credential, error) {
	_, plaintext, err := s.store.ActivePlaintext(ctx, owner, provider)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plaintext)
	return models.UnmarshalCredential(provider, plaintext)
}
