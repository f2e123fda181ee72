package models

import "time"

// FailureReason is the coarse category of a failed credential check.
type FailureReason string

const (
	FailureNone            FailureReason = ""
	FailureUnauthenticated FailureReason = "unauthenticated"
	FailureForbidden       FailureReason = "forbidden"
	FailureNetworkError    FailureReason = "network_error"
	FailureRateLimited     FailureReason = "rate_limited"
)

// ValidationResult is the outcome of checking a credential against its
// provider. It never carries the credential itself.
type ValidationResult struct {
	Provider          Provider      `json:"provider"`
	Validated         bool          `json:"validated"`
	ValidatedAt       time.Time     `json:"validated_at"`
	CapabilitySummary []string      `json:"capability_summary,omitempty"`
	FailureReason     FailureReason `json:"failure_reason,omitempty"`
}
