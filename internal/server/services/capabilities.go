// Package services holds the server-side business logic: credential
// validation and lifecycle, schema discovery and mapping reconciliation.
package services

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// CodeHost is the code-hosting API a GitHub credential unlocks.
type CodeHost interface {
	ListRepos(ctx context.Context, cred *models.Credential, limit int) ([]models.Repo, error)
	GetRepoFields(ctx context.Context, cred *models.Credential, fullName string) ([]models.FieldDescriptor, error)
}

// ServiceDesk is the IT-service-management API a ServiceNow credential
// unlocks.
type ServiceDesk interface {
	ListTables(ctx context.Context, cred *models.Credential, limit int, search string) ([]models.Table, error)
	GetTableFields(ctx context.Context, cred *models.Credential, table string) ([]models.FieldDescriptor, error)
	UpsertRecord(ctx context.Context, cred *models.Credential, rec models.RecordUpsert) (*models.RecordResult, error)
}

// ActiveSecrets exposes active record metadata. secretstore.Store
// satisfies it.
type ActiveSecrets interface {
	Active(ctx context.Context, owner string, provider models.Provider) (*models.SecretRecord, error)
}
