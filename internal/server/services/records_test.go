package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordService_Upsert(t *testing.T) {
	h := connectedHarness(t)
	ctx := context.Background()
	data := map[string]any{"short_description": "disk full"}

	created, err := h.records.UpsertRecord(ctx, "u1", models.RecordUpsert{Table: " incident ", Data: data})
	require.NoError(t, err)
	assert.Equal(t, models.RecordCreated, created.Action)
	assert.Equal(t, "incident", created.Table)

	updated, err := h.records.UpsertRecord(ctx, "u1", models.RecordUpsert{Table: "incident", SysID: created.SysID, Data: data})
	require.NoError(t, err)
	assert.Equal(t, models.RecordUpdated, updated.Action)
	assert.Equal(t, created.SysID, updated.SysID)

	h.serviceDesk.mu.Lock()
	defer h.serviceDesk.mu.Unlock()
	require.Len(t, h.serviceDesk.upserts, 2)
	assert.Equal(t, "incident", h.serviceDesk.upserts[0].Table)
}

func TestRecordService_Rejects(t *testing.T) {
	h := connectedHarness(t)
	data := map[string]any{"a": "b"}

	tests := []struct {
		name  string
		owner string
		rec   models.RecordUpsert
		want  error
	}{
		{"empty table", "u1", models.RecordUpsert{Table: "  ", Data: data}, common.ErrorValidation},
		{"long table", "u1", models.RecordUpsert{Table: strings.Repeat("t", 201), Data: data}, common.ErrorValidation},
		{"no data", "u1", models.RecordUpsert{Table: "incident"}, common.ErrorValidation},
		{"not connected", "nobody", models.RecordUpsert{Table: "incident", Data: data}, common.ErrorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.records.UpsertRecord(context.Background(), tt.owner, tt.rec)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	h.serviceDesk.mu.Lock()
	defer h.serviceDesk.mu.Unlock()
	assert.Empty(t, h.serviceDesk.upserts)
}

func TestRecordService_PropagatesBackendError(t *testing.T) {
	h := connectedHarness(t)
	h.serviceDesk.mu.Lock()
	h.serviceDesk.errs = []error{common.ErrAuthorizationFailure}
	h.serviceDesk.mu.Unlock()

	_, err := h.records.UpsertRecord(context.Background(), "u1", models.RecordUpsert{Table: "incident", Data: map[string]any{"a": 1}})
	assert.ErrorIs(t, err, common.ErrAuthorizationFailure)
}
