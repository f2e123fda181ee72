package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/client/client"
	"github.com/dmitrijs2005/xconnect/internal/client/config"
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// globalFlags are consumed by config.LoadConfig and skipped by Run.
var globalFlags = map[string]bool{
	"-a": true, "-t": true, "-w": true,
	"-c": true, "-config": true, "--c": true, "--config": true,
}

type App struct {
	client  client.Client
	in      *bufio.Reader
	out     io.Writer
	timeout time.Duration
}

// NewApp dials the server named in c using c.AccessToken.
func NewApp(c *config.Config) (*App, error) {
	cl, err := client.NewXConnectClient(c.ServerEndpointAddr, c.AccessToken)
	if err != nil {
		return nil, err
	}
	return NewAppWith(cl, os.Stdin, os.Stdout, c.RequestTimeout), nil
}

// NewAppWith builds an App over an existing client.
func NewAppWith(cl client.Client, in io.Reader, out io.Writer, timeout time.Duration) *App {
	return &App{client: cl, in: bufio.NewReader(in), out: out, timeout: timeout}
}

// Close releases the underlying connection.
func (a *App) Close() error {
	return a.client.Close()
}

// Run executes the command in args (the process arguments without the
// program name) and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	args = commandArgs(args)
	if len(args) == 0 {
		a.usage()
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "connect-github":
		return a.connectGitHub(ctx)
	case "connect-servicenow":
		return a.connectServiceNow(ctx)
	case "revoke":
		return a.revoke(ctx, rest)
	case "integrations":
		return a.integrations(ctx)
	case "suggest":
		return a.suggest(ctx, rest)
	case "validate":
		return a.validate(ctx, rest)
	case "mappings":
		return a.mappings(ctx)
	case "repos":
		return a.repos(ctx, rest)
	case "tables":
		return a.tables(ctx, rest)
	case "repo-fields":
		return a.repoFields(ctx, rest)
	case "table-fields":
		return a.tableFields(ctx, rest)
	case "upsert-record":
		return a.upsertRecord(ctx, rest)
	case "help":
		a.usage()
		return ExitOK
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
		a.usage()
		return ExitUsage
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Available commands: connect-github, connect-servicenow, revoke <provider>, integrations, suggest [-save] [-label L] <repo> <table>, validate <mapping-id>, mappings, repos [-n N], tables [-n N] [-q TEXT], repo-fields <repo>, table-fields <table>, upsert-record [-id SYS_ID] <table> field=value...")
}

func (a *App) fail(err error) int {
	fmt.Fprintln(a.out, "Error:", err)
	return ExitFailure
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// commandArgs drops global configuration flags and their values.
func commandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			if globalFlags[strings.SplitN(arg, "=", 2)[0]] {
				continue
			}
		}
		if globalFlags[arg] {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}
