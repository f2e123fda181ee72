package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/logging"
	"github.com/dmitrijs2005/xconnect/internal/server/integrations/github"
	"github.com/dmitrijs2005/xconnect/internal/server/integrations/servicenow"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
	"github.com/dmitrijs2005/xconnect/internal/server/repositories/mappings"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sides of a mapping, as reported by SchemaFetchError.
const (
	SideSource = "source"
	SideTarget = "target"
)

// SchemaFetchError reports that the schema of one resource could not be
// retrieved. It matches common.ErrSchemaFetchFailure and the cause.
type SchemaFetchError struct {
	Resource string
	Side     string
	Err      error
}

func (e *SchemaFetchError) Error() string {
	return fmt.Sprintf("fetch %s schema %q: %v", e.Side, e.Resource, e.Err)
}

func (e *SchemaFetchError) Unwrap() []error {
	return []error{common.ErrSchemaFetchFailure, e.Err}
}

// SchemaFetcher returns the live fields of both sides of a mapping.
// SchemaService satisfies it.
type SchemaFetcher interface {
	RepoFields(ctx context.Context, owner, fullName string) ([]models.FieldDescriptor, error)
	TableFields(ctx context.Context, owner, table string) ([]models.FieldDescriptor, error)
}

// MappingService validates, proposes and stores repository-to-table
// mappings.
type MappingService struct {
	schemas SchemaFetcher
	secrets ActiveSecrets
	repo    mappings.Repository
	logger  logging.Logger

	now   func() time.Time
	newID func() string
}

// NewMappingService constructs a MappingService.
func NewMappingService(schemas SchemaFetcher, secrets ActiveSecrets, repo mappings.Repository, logger logging.Logger) *MappingService {
	return &MappingService{
		schemas: schemas,
		secrets: secrets,
		repo:    repo,
		logger:  logger.With("module", "mappings"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// inactiveProviders lists the providers without an active credential.
func (s *MappingService) inactiveProviders(ctx context.Context, owner string) ([]models.Provider, error) {
	var out []models.Provider
	for _, p := range models.Providers() {
		_, err := s.secrets.Active(ctx, owner, p)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			out = append(out, p)
		case err != nil:
			return nil, err
		}
	}
	return out, nil
}

// fetchSchemas loads both sides concurrently. Any failure is returned as a
// *SchemaFetchError.
func (s *MappingService) fetchSchemas(ctx context.Context, owner, source, target string) (src, dst []models.FieldDescriptor, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.schemas.RepoFields(gctx, owner, source)
		if err != nil {
			return &SchemaFetchError{Resource: source, Side: SideSource, Err: err}
		}
		src = f
		return nil
	})
	g.Go(func() error {
		f, err := s.schemas.TableFields(gctx, owner, target)
		if err != nil {
			return &SchemaFetchError{Resource: target, Side: SideTarget, Err: err}
		}
		dst = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// ValidateMapping checks spec against the live schemas. Missing
// credentials yield a stale report; a failed schema fetch yields an error
// and never a report.
func (s *MappingService) ValidateMapping(ctx context.Context, spec *models.MappingSpec) (*models.MappingReport, error) {
	if spec == nil || spec.OwnerUserID == "" {
		return nil, fmt.Errorf("%w: mapping owner is required", common.ErrorValidation)
	}

	inactive, err := s.inactiveProviders(ctx, spec.OwnerUserID)
	if err != nil {
		return nil, err
	}
	if len(inactive) > 0 {
		report := &models.MappingReport{Stale: true}
		for _, p := range inactive {
			report.Issues = append(report.Issues, models.Issue{Field: string(p), Kind: models.IssueCredentialInactive})
		}
		return report, nil
	}

	src, dst, err := s.fetchSchemas(ctx, spec.OwnerUserID, spec.SourceResourceID, spec.TargetResourceID)
	if err != nil {
		s.logger.Warn(ctx, "mapping validation aborted", "source", spec.SourceResourceID, "target", spec.TargetResourceID, "error", err)
		return nil, err
	}

	report := &models.MappingReport{Issues: Reconcile(spec.Correspondences, src, dst)}
	report.Valid = len(report.Issues) == 0
	return report, nil
}

// Reconcile lists the problems of correspondences against the given
// schemas, in correspondence order followed by unmapped required targets.
func Reconcile(corr []models.Correspondence, source, target []models.FieldDescriptor) []models.Issue {
	srcByName := indexFields(source)
	dstByName := indexFields(target)

	issues := []models.Issue{}
	mapped := make(map[string]bool, len(corr))
	for _, c := range corr {
		mapped[c.TargetField] = true
		sf, okS := srcByName[c.SourceField]
		df, okD := dstByName[c.TargetField]
		if !okS {
			issues = append(issues, models.Issue{Field: c.SourceField, Kind: models.IssueSourceFieldMissing})
		}
		if !okD {
			issues = append(issues, models.Issue{Field: c.TargetField, Kind: models.IssueTargetFieldMissing})
		}
		if okS && okD && !Compatible(sf.DeclaredType, df.DeclaredType) {
			issues = append(issues, models.Issue{Field: c.TargetField, Kind: models.IssueTypeIncompatible})
		}
	}
	for _, f := range target {
		if f.Required && !mapped[f.Name] {
			issues = append(issues, models.Issue{Field: f.Name, Kind: models.IssueRequiredTargetUnmapped})
		}
	}
	return issues
}

func indexFields(fields []models.FieldDescriptor) map[string]models.FieldDescriptor {
	m := make(map[string]models.FieldDescriptor, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}

// SuggestMapping proposes correspondences between a repository and a
// table. The result is not stored.
func (s *MappingService) SuggestMapping(ctx context.Context, owner, source, target string) (*models.MappingSpec, error) {
	inactive, err := s.inactiveProviders(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(inactive) > 0 {
		return nil, fmt.Errorf("%s is not connected: %w", inactive[0], common.ErrorNotFound)
	}

	src, dst, err := s.fetchSchemas(ctx, owner, source, target)
	if err != nil {
		return nil, err
	}
	return &models.MappingSpec{
		OwnerUserID:      owner,
		SourceResourceID: source,
		TargetResourceID: target,
		Correspondences:  SuggestCorrespondences(src, dst),
	}, nil
}

// SaveMapping stores spec as the mapping of record for its (repository,
// table, label), replacing any earlier version. Both credentials must be
// active.
func (s *MappingService) SaveMapping(ctx context.Context, spec *models.MappingSpec) (*models.MappingSpec, error) {
	if err := checkMappingShape(spec); err != nil {
		return nil, err
	}

	inactive, err := s.inactiveProviders(ctx, spec.OwnerUserID)
	if err != nil {
		return nil, err
	}
	if len(inactive) > 0 {
		return nil, fmt.Errorf("%w: %s is not connected", common.ErrorValidation, inactive[0])
	}

	out := *spec
	out.ID = s.newID()
	out.CreatedAt = s.now()
	out.Stale = false
	out.Correspondences = make([]models.Correspondence, len(spec.Correspondences))
	for i, c := range spec.Correspondences {
		if c.Confidence == 0 {
			c.Confidence = 1
		}
		out.Correspondences[i] = c
	}

	if err := s.repo.Replace(ctx, &out); err != nil {
		return nil, fmt.Errorf("save mapping: %w", err)
	}
	s.logger.Info(ctx, "mapping saved", "source", out.SourceResourceID, "target", out.TargetResourceID, "pairs", len(out.Correspondences))
	return &out, nil
}

func checkMappingShape(spec *models.MappingSpec) error {
	if spec == nil || spec.OwnerUserID == "" {
		return fmt.Errorf("%w: mapping owner is required", common.ErrorValidation)
	}
	if !github.ValidFullName(spec.SourceResourceID) {
		return fmt.Errorf("%w: repository must be owner/repo", common.ErrorValidation)
	}
	if !servicenow.ValidTableName(spec.TargetResourceID) {
		return fmt.Errorf("%w: invalid table name", common.ErrorValidation)
	}
	targets := make(map[string]bool, len(spec.Correspondences))
	for _, c := range spec.Correspondences {
		if strings.TrimSpace(c.SourceField) == "" || strings.TrimSpace(c.TargetField) == "" {
			return fmt.Errorf("%w: correspondence fields must not be empty", common.ErrorValidation)
		}
		if targets[c.TargetField] {
			return fmt.Errorf("%w: target field %q mapped twice", common.ErrorValidation, c.TargetField)
		}
		targets[c.TargetField] = true
	}
	return nil
}

// GetMapping returns one stored mapping of owner.
func (s *MappingService) GetMapping(ctx context.Context, owner, id string) (*models.MappingSpec, error) {
	return s.repo.Get(ctx, owner, id)
}

// ListMappings returns the owner's stored mappings, oldest first.
func (s *MappingService) ListMappings(ctx context.Context, owner string) ([]*models.MappingSpec, error) {
	return s.repo.List(ctx, owner)
}
