package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// CredentialSource resolves the active credential of an owner.
type CredentialSource interface {
	ActiveCredential(ctx context.Context, owner string, provider models.Provider) (*models.Credential, error)
}

// SchemaService discovers resources and their fields with the owner's
// stored credentials.
type SchemaService struct {
	creds       CredentialSource
	codeHost    CodeHost
	serviceDesk ServiceDesk
}

// NewSchemaService constructs a SchemaService.
func NewSchemaService(creds CredentialSource, codeHost CodeHost, serviceDesk ServiceDesk) *SchemaService {
	return &SchemaService{creds: creds, codeHost: codeHost, serviceDesk: serviceDesk}
}

func (s *SchemaService) credential(ctx context.Context, owner string, p models.Provider) (*models.Credential, error) {
	cred, err := s.creds.ActiveCredential(ctx, owner, p)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%s is not connected: %w", p, err)
	}
	return cred, err
}

// ListRepos lists repositories reachable with the owner's GitHub credential.
func (s *SchemaService) ListRepos(ctx context.Context, owner string, limit int) ([]models.Repo, error) {
	cred, err := s.credential(ctx, owner, models.ProviderGitHub)
	if err != nil {
		return nil, err
	}
	return s.codeHost.ListRepos(ctx, cred, limit)
}

// ListTables lists tables reachable with the owner's ServiceNow credential,
// optionally narrowed to those whose name or label contains search.
func (s *SchemaService) ListTables(ctx context.Context, owner string, limit int, search string) ([]models.Table, error) {
	cred, err := s.credential(ctx, owner, models.ProviderServiceNow)
	if err != nil {
		return nil, err
	}
	return s.serviceDesk.ListTables(ctx, cred, limit, search)
}

// RepoFields describes a repository's fields.
func (s *SchemaService) RepoFields(ctx context.Context, owner, fullName string) ([]models.FieldDescriptor, error) {
	cred, err := s.credential(ctx, owner, models.ProviderGitHub)
	if err != nil {
		return nil, err
	}
	return s.codeHost.GetRepoFields(ctx, cred, fullName)
}

// TableFields describes a table's columns.
func (s *SchemaService) TableFields(ctx context.Context, owner, table string) ([]models.FieldDescriptor, error) {
	cred, err := s.credential(ctx, owner, models.ProviderServiceNow)
	if err != nil {
		return nil, err
	}
	return s.serviceDesk.GetTableFields(ctx, cred, table)
}
