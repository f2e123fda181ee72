package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"google.golang.org/grpc"
)

// Credentials is the credential lifecycle behind the gRPC surface.
type Credentials interface {
	Submit(ctx context.Context, owner string, cred *models.Credential) (*models.ValidationResult, error)
	RevokeCredential(ctx context.Context, owner string, provider models.Provider) error
	ListIntegrations(ctx context.Context, owner string) ([]models.IntegrationStatus, error)
}

// Mappings is the reconciliation engine behind the gRPC surface.
type Mappings interface {
	ValidateMapping(ctx context.Context, spec *models.MappingSpec) (*models.MappingReport, error)
	SuggestMapping(ctx context.Context, owner, source, target string) (*models.MappingSpec, error)
	SaveMapping(ctx context.Context, spec *models.MappingSpec) (*models.MappingSpec, error)
	GetMapping(ctx context.Context, owner, id string) (*models.MappingSpec, error)
	ListMappings(ctx context.Context, owner string) ([]*models.MappingSpec, error)
}

// Schemas lists resources reachable with the owner's credentials and
// describes their fields.
type Schemas interface {
	ListRepos(ctx context.Context, owner string, limit int) ([]models.Repo, error)
	ListTables(ctx context.Context, owner string, limit int, search string) ([]models.Table, error)
	RepoFields(ctx context.Context, owner, fullName string) ([]models.FieldDescriptor, error)
	TableFields(ctx context.Context, owner, table string) ([]models.FieldDescriptor, error)
}

// Records writes into the owner's service desk.
type Records interface {
	UpsertRecord(ctx context.Context, owner string, rec models.RecordUpsert) (*models.RecordResult, error)
}

type GRPCServer struct {
	address     string
	credentials Credentials
	mappings    Mappings
	schemas     Schemas
	records     Records
	logger      logging.Logger
	jwtSecret   []byte
}

func NewGRPCServer(a string, l logging.Logger, cs Credentials, ms Mappings, sc Schemas, rs Records, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		credentials: cs,
		mappings:    ms,
		schemas:     sc,
		records:     rs,
		jwtSecret:   []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(api.Codec{}),
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
	)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
