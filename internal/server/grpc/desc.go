package grpc

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"google.golang.org/grpc"
)

// service is implemented by GRPCServer; RegisterService checks it.
type service interface {
	Ping(context.Context, *api.PingRequest) (*api.PingResponse, error)
	SubmitCredential(context.Context, *api.SubmitCredentialRequest) (*api.SubmitCredentialResponse, error)
	RevokeCredential(context.Context, *api.RevokeCredentialRequest) (*api.RevokeCredentialResponse, error)
	ListIntegrations(context.Context, *api.ListIntegrationsRequest) (*api.ListIntegrationsResponse, error)
	ValidateMapping(context.Context, *api.ValidateMappingRequest) (*api.ValidateMappingResponse, error)
	SuggestMapping(context.Context, *api.SuggestMappingRequest) (*api.SuggestMappingResponse, error)
	SaveMapping(context.Context, *api.SaveMappingRequest) (*api.SaveMappingResponse, error)
	ListMappings(context.Context, *api.ListMappingsRequest) (*api.ListMappingsResponse, error)
	ListRepositories(context.Context, *api.ListRepositoriesRequest) (*api.ListRepositoriesResponse, error)
	ListTables(context.Context, *api.ListTablesRequest) (*api.ListTablesResponse, error)
	DescribeRepository(context.Context, *api.DescribeRepositoryRequest) (*api.DescribeRepositoryResponse, error)
	ListTableFields(context.Context, *api.ListTableFieldsRequest) (*api.ListTableFieldsResponse, error)
	UpsertRecord(context.Context, *api.UpsertRecordRequest) (*api.UpsertRecordResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*service)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.MethodPing, service.Ping),
		unary(api.MethodSubmitCredential, service.SubmitCredential),
		unary(api.MethodRevokeCredential, service.RevokeCredential),
		unary(api.MethodListIntegrations, service.ListIntegrations),
		unary(api.MethodValidateMapping, service.ValidateMapping),
		unary(api.MethodSuggestMapping, service.SuggestMapping),
		unary(api.MethodSaveMapping, service.SaveMapping),
		unary(api.MethodListMappings, service.ListMappings),
		unary(api.MethodListRepositories, service.ListRepositories),
		unary(api.MethodListTables, service.ListTables),
		unary(api.MethodDescribeRepo, service.DescribeRepository),
		unary(api.MethodListTableFields, service.ListTableFields),
		unary(api.MethodUpsertRecord, service.UpsertRecord),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xconnect.json",
}

// unary adapts a typed method into a grpc.MethodDesc, running the server
// interceptor chain the same way generated code does.
func unary[Req, Resp any](name string, call func(service, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(service), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: api.FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(service), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
