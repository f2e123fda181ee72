package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/sethvargo/go-retry"
)

// checkLimit is the page size of the listing call that tests a credential.
const checkLimit = 1

// Validator checks a credential against its provider.
type Validator interface {
	Validate(ctx context.Context, cred *models.Credential) (*models.ValidationResult, error)
}

// CredentialValidator performs one live call per submission with the
// submitted material. It never stores the credential.
type CredentialValidator struct {
	codeHost    CodeHost
	serviceDesk ServiceDesk
	timeout     time.Duration
	backoff     time.Duration
	logger      logging.Logger
	now         func() time.Time
}

// NewCredentialValidator bounds every Validate call, retry included, by
// timeout. backoff is the pause before the single network retry.
func NewCredentialValidator(codeHost CodeHost, serviceDesk ServiceDesk, timeout, backoff time.Duration, logger logging.Logger) *CredentialValidator {
	if backoff <= 0 {
		backoff = time.Millisecond
	}
	return &CredentialValidator{
		codeHost:    codeHost,
		serviceDesk: serviceDesk,
		timeout:     timeout,
		backoff:     backoff,
		logger:      logger.With("module", "validator"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Validate calls the provider with cred. On success the result has
// Validated set. On a categorized failure Validate returns both a result
// carrying the FailureReason and an error matching the category sentinel.
// Cancellation of ctx yields ctx.Err() and no result.
func (v *CredentialValidator) Validate(ctx context.Context, cred *models.Credential) (*models.ValidationResult, error) {
	if cred == nil {
		return nil, fmt.Errorf("%w: credential is required", common.ErrorValidation)
	}
	if err := cred.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	check, capability := v.checkFor(cred)

	vctx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	attempt := 0
	b := retry.WithMaxRetries(1, retry.NewConstant(v.backoff))
	err := retry.Do(vctx, b, func(ctx context.Context) error {
		attempt++
		err := check(ctx)
		if err != nil && common.IsRetryable(err) && ctx.Err() == nil {
			v.logger.Warn(ctx, "validation call failed", "provider", cred.Provider, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res := &models.ValidationResult{Provider: cred.Provider, ValidatedAt: v.now()}
	if err == nil {
		res.Validated = true
		res.CapabilitySummary = []string{capability}
		v.logger.Info(ctx, "credential validated", "provider", cred.Provider)
		return res, nil
	}

	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, common.ErrBackendUnavailable) {
		err = fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	reason, ok := failureReason(err)
	if !ok {
		v.logger.Error(ctx, "validation call error", "provider", cred.Provider, "error", err)
		return nil, err
	}
	res.FailureReason = reason
	v.logger.Info(ctx, "credential rejected", "provider", cred.Provider, "reason", reason, "attempts", attempt)
	return res, err
}

func (v *CredentialValidator) checkFor(cred *models.Credential) (func(context.Context) error, string) {
	switch cred.Provider {
	case models.ProviderGitHub:
		return func(ctx context.Context) error {
			_, err := v.codeHost.ListRepos(ctx, cred, checkLimit)
			return err
		}, "list_repositories"
	default:
		return func(ctx context.Context) error {
			_, err := v.serviceDesk.ListTables(ctx, cred, checkLimit, "")
			return err
		}, "list_tables"
	}
}

func failureReason(err error) (models.FailureReason, bool) {
	switch {
	case errors.Is(err, common.ErrAuthenticationFailure):
		return models.FailureUnauthenticated, true
	case errors.Is(err, common.ErrAuthorizationFailure):
		return models.FailureForbidden, true
	case errors.Is(err, common.ErrRateLimited):
		return models.FailureRateLimited, true
	case errors.Is(err, common.ErrBackendUnavailable):
		return models.FailureNetworkError, true
	default:
		return models.FailureNone, false
	}
}
