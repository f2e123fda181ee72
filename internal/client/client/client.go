package client

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	SubmitCredential(ctx context.Context, req *api.SubmitCredentialRequest) (*models.ValidationResult, error)
	RevokeCredential(ctx context.Context, provider models.Provider) error
	ListIntegrations(ctx context.Context) ([]models.IntegrationStatus, error)
	ValidateMapping(ctx context.Context, req *api.ValidateMappingRequest) (*models.MappingReport, error)
	SuggestMapping(ctx context.Context, source, target string) (*models.MappingSpec, error)
	SaveMapping(ctx context.Context, spec *models.MappingSpec) (*models.MappingSpec, error)
	ListMappings(ctx context.Context) ([]*models.MappingSpec, error)
	ListRepositories(ctx context.Context, limit int) ([]models.Repo, error)
	ListTables(ctx context.Context, limit int, query string) ([]models.Table, error)
	DescribeRepository(ctx context.Context, fullName string) ([]models.FieldDescriptor, error)
	ListTableFields(ctx context.Context, table string) ([]models.FieldDescriptor, error)
	UpsertRecord(ctx context.Context, rec *models.RecordUpsert) (*models.RecordResult, error)
}
