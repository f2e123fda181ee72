package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewXConnectClient connects to endpointURL. Extra dial options are
// appended after the defaults, e.g. a bufconn dialer in tests.
func NewXConnectClient(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(api.Codec{})),
	}
	conn, err := grpc.NewClient(s.endpointURL, append(base, opts...)...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	if err := s.conn.Invoke(ctx, api.FullMethod(method), req, resp); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp api.PingResponse
	return s.invoke(ctx, api.MethodPing, &api.PingRequest{}, &resp)
}

func (s *GRPCClient) SubmitCredential(ctx context.Context, req *api.SubmitCredentialRequest) (*models.ValidationResult, error) {
	var resp api.SubmitCredentialResponse
	if err := s.invoke(ctx, api.MethodSubmitCredential, req, &resp); err != nil {
		return nil, err
	}
	return resp.Validation, nil
}

func (s *GRPCClient) RevokeCredential(ctx context.Context, provider models.Provider) error {
	var resp api.RevokeCredentialResponse
	return s.invoke(ctx, api.MethodRevokeCredential, &api.RevokeCredentialRequest{Provider: provider}, &resp)
}

func (s *GRPCClient) ListIntegrations(ctx context.Context) ([]models.IntegrationStatus, error) {
	var resp api.ListIntegrationsResponse
	if err := s.invoke(ctx, api.MethodListIntegrations, &api.ListIntegrationsRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Integrations, nil
}

func (s *GRPCClient) ValidateMapping(ctx context.Context, req *api.ValidateMappingRequest) (*models.MappingReport, error) {
	var resp api.ValidateMappingResponse
	if err := s.invoke(ctx, api.MethodValidateMapping, req, &resp); err != nil {
		return nil, err
	}
	return resp.Report, nil
}

func (s *GRPCClient) SuggestMapping(ctx context.Context, source, target string) (*models.MappingSpec, error) {
	var resp api.SuggestMappingResponse
	if err := s.invoke(ctx, api.MethodSuggestMapping, &api.SuggestMappingRequest{Source: source, Target: target}, &resp); err != nil {
		return nil, err
	}
	return resp.Mapping, nil
}

func (s *GRPCClient) SaveMapping(ctx context.Context, spec *models.MappingSpec) (*models.MappingSpec, error) {
	var resp api.SaveMappingResponse
	if err := s.invoke(ctx, api.MethodSaveMapping, &api.SaveMappingRequest{Mapping: spec}, &resp); err != nil {
		return nil, err
	}
	return resp.Mapping, nil
}

func (s *GRPCClient) ListMappings(ctx context.Context) ([]*models.MappingSpec, error) {
	var resp api.ListMappingsResponse
	if err := s.invoke(ctx, api.MethodListMappings, &api.ListMappingsRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Mappings, nil
}

func (s *GRPCClient) ListRepositories(ctx context.Context, limit int) ([]models.Repo, error) {
	var resp api.ListRepositoriesResponse
	if err := s.invoke(ctx, api.MethodListRepositories, &api.ListRepositoriesRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return resp.Repositories, nil
}

func (s *GRPCClient) ListTables(ctx context.Context, limit int, query string) ([]models.Table, error) {
	var resp api.ListTablesResponse
	if err := s.invoke(ctx, api.MethodListTables, &api.ListTablesRequest{Limit: limit, Query: query}, &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

func (s *GRPCClient) DescribeRepository(ctx context.Context, fullName string) ([]models.FieldDescriptor, error) {
	var resp api.DescribeRepositoryResponse
	if err := s.invoke(ctx, api.MethodDescribeRepo, &api.DescribeRepositoryRequest{FullName: fullName}, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

func (s *GRPCClient) ListTableFields(ctx context.Context, table string) ([]models.FieldDescriptor, error) {
	var resp api.ListTableFieldsResponse
	if err := s.invoke(ctx, api.MethodListTableFields, &api.ListTableFieldsRequest{Table: table}, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

func (s *GRPCClient) UpsertRecord(ctx context.Context, rec *models.RecordUpsert) (*models.RecordResult, error) {
	var resp api.UpsertRecordResponse
	if err := s.invoke(ctx, api.MethodUpsertRecord, &api.UpsertRecordRequest{Record: rec}, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
