package grpc

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

// SubmitCredential validates and stores a credential. A credential the
// provider rejects is not an RPC error: the response carries the reason.
func (s *GRPCServer) SubmitCredential(ctx context.Context, req *api.SubmitCredentialRequest) (*api.SubmitCredentialResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Submit credential request", "provider", req.Provider)

	res, err := s.credentials.Submit(ctx, owner, req.Credential())
	if err != nil {
		if res != nil && !res.Validated {
			return &api.SubmitCredentialResponse{Validation: res}, nil
		}
		s.logger.Error(ctx, "Submit credential failed", "provider", req.Provider, "error", err)
		return nil, toStatus(err)
	}

	return &api.SubmitCredentialResponse{Validation: res}, nil
}

func (s *GRPCServer) RevokeCredential(ctx context.Context, req *api.RevokeCredentialRequest) (*api.RevokeCredentialResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.credentials.RevokeCredential(ctx, owner, req.Provider); err != nil {
		s.logger.Error(ctx, "Revoke credential failed", "provider", req.Provider, "error", err)
		return nil, toStatus(err)
	}

	return &api.RevokeCredentialResponse{}, nil
}

func (s *GRPCServer) ListIntegrations(ctx context.Context, req *api.ListIntegrationsRequest) (*api.ListIntegrationsResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.credentials.ListIntegrations(ctx, owner)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.ListIntegrationsResponse{Integrations: list}, nil
}

func (s *GRPCServer) ValidateMapping(ctx context.Context, req *api.ValidateMappingRequest) (*api.ValidateMappingResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	spec := req.Mapping
	switch {
	case req.MappingID != "":
		spec, err = s.mappings.GetMapping(ctx, owner, req.MappingID)
		if err != nil {
			return nil, toStatus(err)
		}
	case spec == nil:
		return nil, status.Error(codes.InvalidArgument, "mapping_id or mapping is required")
	default:
		c := *spec
		c.OwnerUserID = owner
		spec = &c
	}

	report, err := s.mappings.ValidateMapping(ctx, spec)
	if err != nil {
		s.logger.Warn(ctx, "Validate mapping failed", "error", err)
		return nil, toStatus(err)
	}

	return &api.ValidateMappingResponse{Report: report}, nil
}

func (s *GRPCServer) SuggestMapping(ctx context.Context, req *api.SuggestMappingRequest) (*api.SuggestMappingResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	spec, err := s.mappings.SuggestMapping(ctx, owner, req.Source, req.Target)
	if err != nil {
		s.logger.Warn(ctx, "Suggest mapping failed", "error", err)
		return nil, toStatus(err)
	}

	return &api.SuggestMappingResponse{Mapping: spec}, nil
}

func (s *GRPCServer) SaveMapping(ctx context.Context, req *api.SaveMappingRequest) (*api.SaveMappingResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.Mapping == nil {
		return nil, status.Error(codes.InvalidArgument, "mapping is required")
	}

	spec := *req.Mapping
	spec.OwnerUserID = owner
	saved, err := s.mappings.SaveMapping(ctx, &spec)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.SaveMappingResponse{Mapping: saved}, nil
}

func (s *GRPCServer) ListMappings(ctx context.Context, req *api.ListMappingsRequest) (*api.ListMappingsResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.mappings.ListMappings(ctx, owner)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.ListMappingsResponse{Mappings: list}, nil
}

// defaultListLimit applies when a listing request carries no limit.
const defaultListLimit = 30

func (s *GRPCServer) ListRepositories(ctx context.Context, req *api.ListRepositoriesRequest) (*api.ListRepositoriesResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	repos, err := s.schemas.ListRepos(ctx, owner, limit)
	if err != nil {
		s.logger.Error(ctx, "List repositories failed", "error", err)
		return nil, toStatus(err)
	}

	return &api.ListRepositoriesResponse{Repositories: repos}, nil
}

func (s *GRPCServer) ListTables(ctx context.Context, req *api.ListTablesRequest) (*api.ListTablesResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	tables, err := s.schemas.ListTables(ctx, owner, limit, req.Query)
	if err != nil {
		s.logger.Error(ctx, "List tables failed", "error", err)
		return nil, toStatus(err)
	}

	return &api.ListTablesResponse{Tables: tables}, nil
}

func (s *GRPCServer) DescribeRepository(ctx context.Context, req *api.DescribeRepositoryRequest) (*api.DescribeRepositoryResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	fields, err := s.schemas.RepoFields(ctx, owner, req.FullName)
	if err != nil {
		s.logger.Error(ctx, "Describe repository failed", "repository", req.FullName, "error", err)
		return nil, toStatus(err)
	}

	return &api.DescribeRepositoryResponse{Fields: fields}, nil
}

func (s *GRPCServer) ListTableFields(ctx context.Context, req *api.ListTableFieldsRequest) (*api.ListTableFieldsResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	fields, err := s.schemas.TableFields(ctx, owner, req.Table)
	if err != nil {
		s.logger.Error(ctx, "List table fields failed", "table", req.Table, "error", err)
		return nil, toStatus(err)
	}

	return &api.ListTableFieldsResponse{Fields: fields}, nil
}

func (s *GRPCServer) UpsertRecord(ctx context.Context, req *api.UpsertRecordRequest) (*api.UpsertRecordResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.Record == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}

	res, err := s.records.UpsertRecord(ctx, owner, *req.Record)
	if err != nil {
		s.logger.Error(ctx, "Upsert record failed", "table", req.Record.Table, "error", err)
		return nil, toStatus(err)
	}

	return &api.UpsertRecordResponse{Result: res}, nil
}
