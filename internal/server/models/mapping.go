package models

import "time"

// Correspondence pairs one source field with one target field.
// Confidence is 1 for user-authored pairs and the heuristic score for
// suggested ones.
type Correspondence struct {
	SourceField string  `json:"source_field"`
	TargetField string  `json:"target_field"`
	Confidence  float64 `json:"confidence"`
}

// MappingSpec maps fields of a repository (SourceResourceID, "owner/repo")
// onto a table (TargetResourceID). It is replaced as a whole, never edited.
type MappingSpec struct {
	ID               string           `json:"id,omitempty"`
	OwnerUserID      string           `json:"owner_user_id"`
	SourceResourceID string           `json:"source_resource_id"`
	TargetResourceID string           `json:"target_resource_id"`
	Label            string           `json:"label,omitempty"`
	Correspondences  []Correspondence `json:"correspondences"`
	Stale            bool             `json:"stale"`
	CreatedAt        time.Time        `json:"created_at,omitempty"`
}

// IssueKind classifies a problem found while validating a mapping.
type IssueKind string

const (
	IssueSourceFieldMissing     IssueKind = "source_field_missing"
	IssueTargetFieldMissing     IssueKind = "target_field_missing"
	IssueTypeIncompatible       IssueKind = "type_incompatible"
	IssueRequiredTargetUnmapped IssueKind = "required_target_unmapped"
	IssueCredentialInactive     IssueKind = "credential_inactive"
)

// Issue names the field (or provider, for credential issues) at fault.
type Issue struct {
	Field string    `json:"field"`
	Kind  IssueKind `json:"kind"`
}

// MappingReport is the result of validating a mapping against live schemas.
type MappingReport struct {
	Valid  bool    `json:"valid"`
	Stale  bool    `json:"stale"`
	Issues []Issue `json:"issues"`
}

// IntegrationStatus summarises the active credential for one provider.
type IntegrationStatus struct {
	Provider       Provider          `json:"provider"`
	Connected      bool              `json:"connected"`
	Backend        Backend           `json:"backend,omitempty"`
	ConnectedAt    *time.Time        `json:"connected_at,omitempty"`
	LastValidation *ValidationResult `json:"last_validation,omitempty"`
}
