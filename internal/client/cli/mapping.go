package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/xconnect/internal/api"
)

func (a *App) suggest(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	save := fs.Bool("save", false, "save the suggestion")
	label := fs.String("label", "", "mapping label")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		fmt.Fprintln(a.out, "Usage: suggest [-save] [-label L] <owner/repo> <table>")
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	spec, err := a.client.SuggestMapping(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return a.fail(err)
	}
	printCorrespondences(a.out, spec.Correspondences)

	if !*save {
		return ExitOK
	}
	if len(spec.Correspondences) == 0 {
		fmt.Fprintln(a.out, "Nothing to save")
		return ExitFailure
	}
	spec.Label = *label
	saved, err := a.client.SaveMapping(ctx, spec)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Saved mapping %s\n", saved.ID)
	return ExitOK
}

func (a *App) validate(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: validate <mapping-id>")
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	report, err := a.client.ValidateMapping(ctx, &api.ValidateMappingRequest{MappingID: args[0]})
	if err != nil {
		return a.fail(err)
	}
	printReport(a.out, report)
	if !report.Valid {
		return ExitFailure
	}
	return ExitOK
}

func (a *App) mappings(ctx context.Context) int {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	list, err := a.client.ListMappings(ctx)
	if err != nil {
		return a.fail(err)
	}
	printMappings(a.out, list)
	return ExitOK
}

func (a *App) integrations(ctx context.Context) int {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	list, err := a.client.ListIntegrations(ctx)
	if err != nil {
		return a.fail(err)
	}
	printIntegrations(a.out, list)
	return ExitOK
}

func listLimit(name string, args []string) (int, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	n := fs.Int("n", 0, "maximum number of entries")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || *n < 0 {
		return 0, false
	}
	return *n, true
}

func (a *App) repos(ctx context.Context, args []string) int {
	limit, ok := listLimit("repos", args)
	if !ok {
		fmt.Fprintln(a.out, "Usage: repos [-n N]")
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	list, err := a.client.ListRepositories(ctx, limit)
	if err != nil {
		return a.fail(err)
	}
	printRepos(a.out, list)
	return ExitOK
}

func (a *App) tables(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("tables", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	n := fs.Int("n", 0, "maximum number of entries")
	query := fs.String("q", "", "name or label filter")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || *n < 0 {
		fmt.Fprintln(a.out, "Usage: tables [-n N] [-q TEXT]")
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	list, err := a.client.ListTables(ctx, *n, *query)
	if err != nil {
		return a.fail(err)
	}
	printTables(a.out, list)
	return ExitOK
}
