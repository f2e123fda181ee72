package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

func (a *App) connectGitHub(ctx context.Context) int {
	token, err := GetPassword("GitHub personal access token", a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(token)

	return a.submit(ctx, &api.SubmitCredentialRequest{
		Provider: models.ProviderGitHub,
		Token:    strings.TrimSpace(string(token)),
	})
}

func (a *App) connectServiceNow(ctx context.Context) int {
	instance, err := GetSimpleText(a.in, "Instance URL (https://<name>.service-now.com)", a.out)
	if err != nil {
		return a.fail(err)
	}
	user, err := GetSimpleText(a.in, "Username", a.out)
	if err != nil {
		return a.fail(err)
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	return a.submit(ctx, &api.SubmitCredentialRequest{
		Provider:    models.ProviderServiceNow,
		InstanceURL: strings.TrimRight(instance, "/"),
		Username:    user,
		Password:    string(password),
	})
}

func (a *App) submit(ctx context.Context, req *api.SubmitCredentialRequest) int {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.SubmitCredential(ctx, req)
	if err != nil {
		return a.fail(err)
	}
	if !res.Validated {
		fmt.Fprintf(a.out, "%s credential rejected: %s\n", res.Provider, res.FailureReason)
		return ExitFailure
	}
	fmt.Fprintf(a.out, "%s connected (%s)\n", res.Provider, strings.Join(res.CapabilitySummary, ", "))
	return ExitOK
}

func (a *App) revoke(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: revoke <github|servicenow>")
		return ExitUsage
	}
	provider := models.Provider(args[0])
	if !provider.Valid() {
		fmt.Fprintf(a.out, "Unknown provider %q\n", args[0])
		return ExitUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.RevokeCredential(ctx, provider); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s credential revoked\n", provider)
	return ExitOK
}
