// Package server wires the XConnect server together: configuration,
// repositories, the secret store, the provider integrations, services and
// the gRPC endpoint, and runs it until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/netx"
	"github.com/dmitrijs2005/xconnect/internal/server/config"
	"github.com/dmitrijs2005/xconnect/internal/server/integrations/github"
	"github.com/dmitrijs2005/xconnect/internal/server/integrations/servicenow"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/xconnect/internal/server/secretstore"
	"github.com/dmitrijs2005/xconnect/internal/server/services"

	gs "github.com/dmitrijs2005/xconnect/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	credentials *services.CredentialService
	mappings    *services.MappingService
	schemas     *services.SchemaService
	records     *services.RecordService
}

// newBackend and newRepositoryManager are test seams.
var (
	newBackend           = secretstore.NewBackend
	newRepositoryManager = repomanager.New
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	rm, err := newRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	backend, err := newBackend(ctx, c)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("secret backend init error: %w", err)
	}
	store := secretstore.NewStore(rm.Secrets(), backend, logger, c.RetryBackoff)

	hc := netx.NewClient(c.HTTPTimeout)
	codeHost := github.NewClient(c.GitHubBaseURL, hc)
	serviceDesk := servicenow.NewClient(hc)

	validator := services.NewCredentialValidator(codeHost, serviceDesk, c.ValidationTimeout, c.RetryBackoff, logger)
	cs := services.NewCredentialService(validator, store, rm.Mappings(), logger)
	schemas := services.NewSchemaService(cs, codeHost, serviceDesk)
	ms := services.NewMappingService(schemas, store, rm.Mappings(), logger)
	rs := services.NewRecordService(cs, serviceDesk, logger)

	logger.Info(ctx, "App initialized", "secret_backend", backend.Kind(), "persistent", c.DatabaseDSN != "")

	return &App{config: c, logger: logger, repos: rm, credentials: cs, mappings: ms, schemas: schemas, records: rs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.credentials, app.mappings, app.schemas, app.records, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(context.Background(), "close repositories", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
