package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// maxTableNameLen matches the longest table name ServiceNow accepts.
const maxTableNameLen = 200

// RecordService writes records into the owner's ServiceNow instance.
type RecordService struct {
	creds       CredentialSource
	serviceDesk ServiceDesk
	logger      logging.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(creds CredentialSource, serviceDesk ServiceDesk, logger logging.Logger) *RecordService {
	return &RecordService{creds: creds, serviceDesk: serviceDesk, logger: logger.With("module", "records")}
}

// UpsertRecord creates or updates one record with the owner's active
// ServiceNow credential. Field values are never logged.
func (s *RecordService) UpsertRecord(ctx context.Context, owner string, rec models.RecordUpsert) (*models.RecordResult, error) {
	rec.Table = strings.TrimSpace(rec.Table)
	if rec.Table == "" || len(rec.Table) > maxTableNameLen {
		return nil, fmt.Errorf("%w: table must be 1-%d characters", common.ErrorValidation, maxTableNameLen)
	}
	if len(rec.Data) == 0 {
		return nil, fmt.Errorf("%w: record data is empty", common.ErrorValidation)
	}

	cred, err := s.creds.ActiveCredential(ctx, owner, models.ProviderServiceNow)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%s is not connected: %w", models.ProviderServiceNow, err)
	}
	if err != nil {
		return nil, err
	}

	res, err := s.serviceDesk.UpsertRecord(ctx, cred, rec)
	if err != nil {
		s.logger.Warn(ctx, "record upsert failed", "table", rec.Table, "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "record upserted", "table", res.Table, "sys_id", res.SysID, "action", res.Action, "fields", len(rec.Data))
	return res, nil
}
