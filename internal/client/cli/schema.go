package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

func (a *App) repoFields(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: repo-fields <owner/repo>")
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	fields, err := a.client.DescribeRepository(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	printFields(a.out, fields)
	return ExitOK
}

func (a *App) tableFields(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: table-fields <table>")
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	fields, err := a.client.ListTableFields(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	printFields(a.out, fields)
	return ExitOK
}

func (a *App) upsertRecord(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("upsert-record", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	sysID := fs.String("id", "", "sys_id of the record to update")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		fmt.Fprintln(a.out, "Usage: upsert-record [-id SYS_ID] <table> field=value...")
		return ExitUsage
	}
	data, ok := parseAssignments(fs.Args()[1:])
	if !ok {
		fmt.Fprintln(a.out, "Fields must be given as field=value")
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.UpsertRecord(ctx, &models.RecordUpsert{Table: fs.Arg(0), SysID: *sysID, Data: data})
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Record %s %s in %s\n", res.SysID, res.Action, res.Table)
	return ExitOK
}

// parseAssignments turns field=value pairs into record data. The last
// value wins for a repeated field.
func parseAssignments(args []string) (map[string]any, bool) {
	data := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, found := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !found || k == "" {
			return nil, false
		}
		data[k] = v
	}
	return data, true
}
