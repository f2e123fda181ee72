package secretstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet_BothBackends(t *testing.T) {
	local, _ := newLocalStore()
	kms, _, _ := newKMSStore()

	for name, s := range map[string]*Store{"local": local, "kms": kms} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h, err := s.Put(ctx, "u1", models.ProviderGitHub, []byte(`{"token":"t1"}`))
			require.NoError(t, err)

			got, err := s.Get(ctx, h)
			require.NoError(t, err)
			assert.Equal(t, `{"token":"t1"}`, string(got))

			meta, err := s.Active(ctx, "u1", models.ProviderGitHub)
			require.NoError(t, err)
			assert.Equal(t, h, meta.ID)
			assert.Nil(t, meta.Payload, "metadata never carries the payload")
			assert.Equal(t, s.BackendKind(), meta.Backend)
		})
	}
}

func TestStore_PutValidatesInput(t *testing.T) {
	s, _ := newLocalStore()
	ctx := context.Background()

	_, err := s.Put(ctx, "", models.ProviderGitHub, []byte("x"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.Put(ctx, "u1", "jira", []byte("x"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.Put(ctx, "u1", models.ProviderGitHub, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestStore_PutAttachesValidation(t *testing.T) {
	s, _ := newLocalStore()
	ctx := context.Background()
	v := &models.ValidationResult{Provider: models.ProviderGitHub, Validated: true, CapabilitySummary: []string{"repo:read"}}

	_, err := s.Put(ctx, "u1", models.ProviderGitHub, []byte("x"), WithValidation(v))
	require.NoError(t, err)

	meta, err := s.Active(ctx, "u1", models.ProviderGitHub)
	require.NoError(t, err)
	require.NotNil(t, meta.Validation)
	assert.Equal(t, []string{"repo:read"}, meta.Validation.CapabilitySummary)
}

func TestStore_SealFailurePersistsNothing(t *testing.T) {
	s, _, km := newKMSStore()
	ctx := context.Background()

	prev, err := s.Put(ctx, "u1", models.ProviderGitHub, []byte("good"))
	require.NoError(t, err)

	km.sealErr = common.ErrBackendUnavailable
	_, err = s.Put(ctx, "u1", models.ProviderGitHub, []byte("new"))
	assert.ErrorIs(t, err, common.ErrEncryptionFailure)

	meta, err := s.Active(ctx, "u1", models.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, prev, meta.ID, "prior record stays active")

	got, err := s.Get(ctx, prev)
	require.NoError(t, err)
	assert.Equal(t, "good", string(got))
}

func TestStore_ActivateFailureDestroysExternalCopy(t *testing.T) {
	km := newFakeKeyManager()
	repo := failingRepo{Repository: secrets.NewMemoryRepository(), err: errors.New("db down")}
	s := NewStore(repo, NewKMSBackend(km, "p"), logging.Nop{}, time.Millisecond)

	_, err := s.Put(context.Background(), "u1", models.ProviderGitHub, []byte("x"))
	require.Error(t, err)
	assert.Len(t, km.destroyed, 1)
	assert.Empty(t, km.secrets)
}

func TestStore_Rotate(t *testing.T) {
	s, repo := newLocalStore()
	ctx := context.Background()

	_, err := s.Rotate(ctx, "u1", models.ProviderGitHub, []byte("v2"))
	assert.ErrorIs(t, err, common.ErrorNotFound, "nothing to rotate")

	h1, err := s.Put(ctx, "u1", models.ProviderGitHub, []byte("v1"))
	require.NoError(t, err)
	h2, err := s.Rotate(ctx, "u1", models.ProviderGitHub, []byte("v2"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	meta, _ := s.Active(ctx, "u1", models.ProviderGitHub)
	assert.Equal(t, h2, meta.ID)

	old, err := repo.Get(ctx, h1)
	require.NoError(t, err)
	assert.NotNil(t, old.RotatedAt)

	// superseded records stay readable for in-flight readers
	got, err := s.Get(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))
}

func TestStore_RevokeIdempotent(t *testing.T) {
	s, _, km := newKMSStore()
	ctx := context.Background()

	h, err := s.Put(ctx, "u1", models.ProviderServiceNow, []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, s.Revoke(ctx, h))
	require.NoError(t, s.Revoke(ctx, h))
	assert.Len(t, km.destroyed, 1, "external secret destroyed exactly once")

	_, err = s.Active(ctx, "u1", models.ProviderServiceNow)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Get(ctx, h)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, s.Revoke(ctx, "unknown"), common.ErrorNotFound)
}

func TestStore_Get_TransientUnsealRetriedOnce(t *testing.T) {
	s, repo, km := newKMSStore()
	ctx := context.Background()

	h, err := s.Put(ctx, "u1", models.ProviderGitHub, []byte("tok"))
	require.NoError(t, err)
	before, err := repo.Get(ctx, h)
	require.NoError(t, err)

	km.unsealErr = []error{common.ErrBackendUnavailable, common.ErrBackendUnavailable, common.ErrBackendUnavailable}
	_, err = s.Get(ctx, h)
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
	assert.Equal(t, 2, km.unsealCalls(), "one retry, then surface")

	after, err := repo.Get(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, before, after, "record state unchanged")

	meta, err := s.Active(ctx, "u1", models.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, h, meta.ID)
}

func TestStore_Get_RecoversOnRetry(t *testing.T) {
	s, _, km := newKMSStore()
	ctx := context.Background()

	h, err := s.Put(ctx, "u1", models.ProviderGitHub, []byte("tok"))
	require.NoError(t, err)

	km.unsealErr = []error{common.ErrBackendUnavailable}
	got, err := s.Get(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "tok", string(got))
	assert.Equal(t, 2, km.unsealCalls())
}

func TestStore_Get_TerminalErrorsNotRetried(t *testing.T) {
	s, _, km := newKMSStore()
	ctx := context.Background()

	h, err := s.Put(ctx, "u1", models.ProviderGitHub, []byte("tok"))
	require.NoError(t, err)

	km.unsealErr = []error{common.ErrorNotFound}
	_, err = s.Get(ctx, h)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 1, km.unsealCalls())
}

func TestStore_Get_IntegrityDistinctFromNotFound(t *testing.T) {
	s, repo := newLocalStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "never-set")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// a record sealed under another key
	other, _ := NewLocalBackend(make([]byte, 32))
	rec := &models.SecretRecord{ID: "foreign", OwnerUserID: "u1", Provider: models.ProviderGitHub, Backend: models.BackendLocalEncrypted, CreatedAt: time.Now()}
	rec.Payload, _ = other.Seal(ctx, rec, []byte("x"))
	_, err = repo.Activate(ctx, rec)
	require.NoError(t, err)

	_, err = s.Get(ctx, "foreign")
	assert.ErrorIs(t, err, common.ErrIntegrityFailure)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_ActivePlaintext(t *testing.T) {
	s, _ := newLocalStore()
	ctx := context.Background()

	_, _, err := s.ActivePlaintext(ctx, "u1", models.ProviderGitHub)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	h, _ := s.Put(ctx, "u1", models.ProviderGitHub, []byte("tok"))
	meta, p, err := s.ActivePlaintext(ctx, "u1", models.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, h, meta.ID)
	assert.Equal(t, "tok", string(p))
}
