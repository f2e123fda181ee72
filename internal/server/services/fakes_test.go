package services

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/mappings"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/xconnect/internal/server/secretstore"
	"github.com/stretchr/testify/require"
)

// fakeCodeHost answers from canned data; errs is consumed one per call.
type fakeCodeHost struct {
	mu     sync.Mutex
	errs   []error
	fields map[string][]models.FieldDescriptor
	calls  int
	tokens []string
	block  bool
}

func (f *fakeCodeHost) next(ctx context.Context, cred *models.Credential) error {
	f.mu.Lock()
	f.calls++
	f.tokens = append(f.tokens, cred.Token)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeCodeHost) ListRepos(ctx context.Context, cred *models.Credential, limit int) ([]models.Repo, error) {
	if err := f.next(ctx, cred); err != nil {
		return nil, err
	}
	return []models.Repo{{FullName: "acme/api", Visibility: "private"}}, nil
}

func (f *fakeCodeHost) GetRepoFields(ctx context.Context, cred *models.Credential, fullName string) ([]models.FieldDescriptor, error) {
	if err := f.next(ctx, cred); err != nil {
		return nil, err
	}
	return f.fields[fullName], nil
}

func (f *fakeCodeHost) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeServiceDesk struct {
	mu       sync.Mutex
	errs     []error
	fields   map[string][]models.FieldDescriptor
	calls    int
	searches []string
	upserts  []models.RecordUpsert
}

func (f *fakeServiceDesk) next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func (f *fakeServiceDesk) ListTables(ctx context.Context, cred *models.Credential, limit int, search string) ([]models.Table, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.searches = append(f.searches, search)
	f.mu.Unlock()
	return []models.Table{{Name: "incident", Label: "Incident"}}, nil
}

func (f *fakeServiceDesk) GetTableFields(ctx context.Context, cred *models.Credential, table string) ([]models.FieldDescriptor, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	return f.fields[table], nil
}

func (f *fakeServiceDesk) UpsertRecord(ctx context.Context, cred *models.Credential, rec models.RecordUpsert) (*models.RecordResult, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.upserts = append(f.upserts, rec)
	f.mu.Unlock()
	action, sysID := models.RecordCreated, "00000000000000000000000000000001"
	if rec.SysID != "" {
		action, sysID = models.RecordUpdated, rec.SysID
	}
	return &models.RecordResult{Table: rec.Table, SysID: sysID, Action: action, Record: rec.Data}, nil
}

type harness struct {
	codeHost    *fakeCodeHost
	serviceDesk *fakeServiceDesk
	store       *secretstore.Store
	secrets     *secrets.MemoryRepository
	mappingRepo *mappings.MemoryRepository
	creds       *CredentialService
	schemas     *SchemaService
	mappings    *MappingService
	records     *RecordService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		codeHost:    &fakeCodeHost{fields: map[string][]models.FieldDescriptor{}},
		serviceDesk: &fakeServiceDesk{fields: map[string][]models.FieldDescriptor{}},
		secrets:     secrets.NewMemoryRepository(),
		mappingRepo: mappings.NewMemoryRepository(),
	}
	backend, err := secretstore.NewLocalBackend(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)
	h.store = secretstore.NewStore(h.secrets, backend, logging.Nop{}, time.Millisecond)

	v := NewCredentialValidator(h.codeHost, h.serviceDesk, time.Second, time.Millisecond, logging.Nop{})
	h.creds = NewCredentialService(v, h.store, h.mappingRepo, logging.Nop{})
	h.schemas = NewSchemaService(h.creds, h.codeHost, h.serviceDesk)
	h.mappings = NewMappingService(h.schemas, h.store, h.mappingRepo, logging.Nop{})
	h.records = NewRecordService(h.creds, h.serviceDesk, logging.Nop{})
	return h
}

func githubCred(token string) *models.Credential {
	return &models.Credential{Provider: models.ProviderGitHub, Token: token}
}

func servicenowCred() *models.Credential {
	return &models.Credential{
		Provider:    models.ProviderServiceNow,
		InstanceURL: "https://dev1.service-now.com",
		Username:    "admin",
		Password:    "pw",
	}
}

// connectBoth submits a valid credential for each provider.
func (h *harness) connectBoth(t *testing.T, owner string) {
	t.Helper()
	_, err := h.creds.Submit(context.Background(), owner, githubCred("ghp_good"))
	require.NoError(t, err)
	_, err = h.creds.Submit(context.Background(), owner, servicenowCred())
	require.NoError(t, err)
}
