// Package models defines the server-side domain records.
package models

import "time"

// Provider names an external service a credential authenticates against.
type Provider string

const (
	ProviderGitHub     Provider = "github"
	ProviderServiceNow Provider = "servicenow"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderGitHub || p == ProviderServiceNow
}

// Providers lists every supported provider in display order.
func Providers() []Provider {
	return []Provider{ProviderGitHub, ProviderServiceNow}
}

// Backend names the strategy used to seal a secret.
type Backend string

const (
	BackendLocalEncrypted Backend = "local_encrypted"
	BackendExternalKMS    Backend = "external_kms"
)

// SecretRecord is one immutable generation of a credential for
// (OwnerUserID, Provider). Payload is ciphertext for local_encrypted and an
// opaque external reference for external_kms; only the secret store reads it.
type SecretRecord struct {
	ID          string
	OwnerUserID string
	Provider    Provider
	Backend     Backend
	Payload     []byte
	CreatedAt   time.Time
	// RotatedAt is set once a newer record superseded this one.
	RotatedAt *time.Time
	// RevokedAt is set once the record was explicitly revoked.
	RevokedAt  *time.Time
	Validation *ValidationResult
}

// Live reports whether the record has been neither superseded nor revoked.
func (r *SecretRecord) Live() bool {
	return r.RotatedAt == nil && r.RevokedAt == nil
}

// Metadata returns a copy of r without its payload.
func (r *SecretRecord) Metadata() *SecretRecord {
	c := *r
	c.Payload = nil
	return &c
}
