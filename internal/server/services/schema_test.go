package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaService_UsesStoredCredential(t *testing.T) {
	h := connectedHarness(t)
	ctx := context.Background()

	repos, err := h.schemas.ListRepos(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, repos, 1)

	tables, err := h.schemas.ListTables(ctx, "u1", 10, "inc")
	require.NoError(t, err)
	assert.Equal(t, "incident", tables[0].Name)
	h.serviceDesk.mu.Lock()
	assert.Equal(t, "inc", h.serviceDesk.searches[len(h.serviceDesk.searches)-1])
	h.serviceDesk.mu.Unlock()

	fields, err := h.schemas.RepoFields(ctx, "u1", "acme/api")
	require.NoError(t, err)
	assert.Equal(t, repoFields(), fields)

	h.codeHost.mu.Lock()
	last := h.codeHost.tokens[len(h.codeHost.tokens)-1]
	h.codeHost.mu.Unlock()
	assert.Equal(t, "ghp_good", last)
}

func TestSchemaService_NotConnected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.schemas.ListRepos(ctx, "nobody", 10)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = h.schemas.TableFields(ctx, "nobody", "incident")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Zero(t, h.codeHost.callCount())
}
