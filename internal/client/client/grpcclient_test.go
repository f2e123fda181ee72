package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// stubCall records what reached the server.
type stubCall struct {
	method string
	token  string
	body   json.RawMessage
}

// startStub serves every method with reply, or fails with err.
func startStub(t *testing.T, reply any, err error) (*GRPCClient, *stubCall) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	seen := &stubCall{}

	srv := grpc.NewServer(
		grpc.ForceServerCodec(api.Codec{}),
		grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
			seen.method, _ = grpc.MethodFromServerStream(stream)
			if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
				if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
					seen.token = v[0]
				}
			}
			var in json.RawMessage
			if err := stream.RecvMsg(&in); err != nil {
				return err
			}
			seen.body = in
			if err != nil {
				return err
			}
			return stream.SendMsg(reply)
		}),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, cerr := NewXConnectClient("passthrough:///bufnet", "tok-1",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, cerr)
	t.Cleanup(func() { _ = c.Close() })
	return c, seen
}

func TestGRPCClient_SendsTokenAndMethod(t *testing.T) {
	c, seen := startStub(t, &api.SuggestMappingResponse{
		Mapping: &models.MappingSpec{SourceResourceID: "acme/api", TargetResourceID: "u_repo"},
	}, nil)

	spec, err := c.SuggestMapping(context.Background(), "acme/api", "u_repo")
	require.NoError(t, err)
	assert.Equal(t, "acme/api", spec.SourceResourceID)

	assert.Equal(t, api.FullMethod(api.MethodSuggestMapping), seen.method)
	assert.Equal(t, "tok-1", seen.token)
	assert.JSONEq(t, `{"source":"acme/api","target":"u_repo"}`, string(seen.body))
}

func TestGRPCClient_SubmitCredential(t *testing.T) {
	c, seen := startStub(t, &api.SubmitCredentialResponse{
		Validation: &models.ValidationResult{Provider: models.ProviderGitHub, FailureReason: models.FailureUnauthenticated},
	}, nil)

	res, err := c.SubmitCredential(context.Background(), &api.SubmitCredentialRequest{Provider: models.ProviderGitHub, Token: "ghp_x"})
	require.NoError(t, err)
	assert.False(t, res.Validated)
	assert.Equal(t, models.FailureUnauthenticated, res.FailureReason)
	assert.Equal(t, api.FullMethod(api.MethodSubmitCredential), seen.method)
}

func TestGRPCClient_MapsStatusCodes(t *testing.T) {
	tests := []struct {
		code codes.Code
		want error
	}{
		{codes.Unauthenticated, ErrUnauthorized},
		{codes.PermissionDenied, ErrUnauthorized},
		{codes.Unavailable, ErrUnavailable},
		{codes.DeadlineExceeded, ErrUnavailable},
		{codes.NotFound, ErrNotFound},
		{codes.InvalidArgument, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			c, _ := startStub(t, nil, status.Error(tt.code, "nope"))
			err := c.RevokeCredential(context.Background(), models.ProviderGitHub)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	c, _ := startStub(t, nil, status.Error(codes.Internal, "boom"))
	err := c.Ping(context.Background())
	require.Error(t, err)
	for _, s := range []error{ErrUnauthorized, ErrUnavailable, ErrNotFound, ErrInvalidArgument} {
		assert.False(t, errors.Is(err, s))
	}
}

func TestGRPCClient_CloseWithoutConn(t *testing.T) {
	assert.NoError(t, (&GRPCClient{}).Close())
}

func TestGRPCClient_ListTables(t *testing.T) {
	c, seen := startStub(t, &api.ListTablesResponse{
		Tables: []models.Table{{Name: "incident", Label: "Incident"}},
	}, nil)

	tables, err := c.ListTables(context.Background(), 3, "inc")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "incident", tables[0].Name)
	assert.Equal(t, api.FullMethod(api.MethodListTables), seen.method)
	assert.JSONEq(t, `{"limit":3,"query":"inc"}`, string(seen.body))
}

func TestGRPCClient_FieldRequests(t *testing.T) {
	fields := []models.FieldDescriptor{{Name: "number", DeclaredType: models.TypeString}}
	tests := []struct {
		name     string
		reply    any
		call     func(c *GRPCClient) ([]models.FieldDescriptor, error)
		wantPath string
		wantBody string
	}{
		{
			name:  "repository",
			reply: &api.DescribeRepositoryResponse{Fields: fields},
			call: func(c *GRPCClient) ([]models.FieldDescriptor, error) {
				return c.DescribeRepository(context.Background(), "acme/api")
			},
			wantPath: api.FullMethod(api.MethodDescribeRepo),
			wantBody: `{"full_name":"acme/api"}`,
		},
		{
			name:  "table",
			reply: &api.ListTableFieldsResponse{Fields: fields},
			call: func(c *GRPCClient) ([]models.FieldDescriptor, error) {
				return c.ListTableFields(context.Background(), "incident")
			},
			wantPath: api.FullMethod(api.MethodListTableFields),
			wantBody: `{"table":"incident"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := startStub(t, tt.reply, nil)
			got, err := tt.call(c)
			require.NoError(t, err)
			assert.Equal(t, fields, got)
			assert.Equal(t, tt.wantPath, seen.method)
			assert.JSONEq(t, tt.wantBody, string(seen.body))
		})
	}
}

func TestGRPCClient_UpsertRecord(t *testing.T) {
	c, seen := startStub(t, &api.UpsertRecordResponse{
		Result: &models.RecordResult{Table: "incident", SysID: "abc", Action: models.RecordUpdated},
	}, nil)

	res, err := c.UpsertRecord(context.Background(), &models.RecordUpsert{
		Table: "incident", SysID: "abc", Data: map[string]any{"state": "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecordUpdated, res.Action)
	assert.Equal(t, api.FullMethod(api.MethodUpsertRecord), seen.method)
	assert.JSONEq(t, `{"record":{"table":"incident","sys_id":"abc","data":{"state":"2"}}}`, string(seen.body))
}
