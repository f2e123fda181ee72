// Package config handles configuration for the server component:
// defaults, an optional JSON file, environment variables and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"os"
	"time"
)

// Secret backend names accepted in SecretBackend.
const (
	BackendLocalEncrypted = "local_encrypted"
	BackendExternalKMS    = "external_kms"
)

// KMS providers accepted in KMSProvider.
const (
	KMSProviderSecretsManager = "secretsmanager"
	KMSProviderS3             = "s3"
)

// Config holds runtime settings for the XConnect server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects in-memory repositories.
//   - SecretKey: HMAC secret for verifying access tokens (HS256).
//   - AccessTokenValidityDuration: lifetime of tokens minted by cmd/gentoken.
//   - SecretBackend: local_encrypted or external_kms; fixed for the process.
//   - EncryptionKey / EncryptionSalt: key material for local_encrypted.
//   - KMSProvider / KMSPrefix / AWSRegion: external_kms settings.
//   - S3*: object storage settings for the s3 KMS provider.
//   - GitHubBaseURL: REST root of the code-hosting API.
//   - ValidationTimeout: bound on one credential validation, retry included.
//   - RetryBackoff: pause before the single retry.
//   - HTTPTimeout: per-request timeout of outbound REST calls.
type Config struct {
	EndpointAddrGRPC            string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	LogLevel                    string

	SecretBackend  string
	EncryptionKey  string
	EncryptionSalt string
	KMSProvider    string
	KMSPrefix      string
	AWSRegion      string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3BaseEndpoint string
	S3KMSKeyID     string

	GitHubBaseURL     string
	ValidationTimeout time.Duration
	RetryBackoff      time.Duration
	HTTPTimeout       time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.LogLevel = "info"
	c.SecretBackend = BackendLocalEncrypted
	c.EncryptionKey = ""
	c.EncryptionSalt = "xconnect"
	c.KMSProvider = KMSProviderSecretsManager
	c.KMSPrefix = "xconnect"
	c.AWSRegion = "us-east-1"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3KMSKeyID = ""
	c.GitHubBaseURL = "https://api.github.com"
	c.ValidationTimeout = 10 * time.Second
	c.RetryBackoff = 500 * time.Millisecond
	c.HTTPTimeout = 8 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
// It panics on malformed input, as a misconfigured server must not start.
func LoadConfig() *Config {
	args := os.Args[1:]
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	return cfg
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	switch c.SecretBackend {
	case BackendLocalEncrypted:
		if c.EncryptionKey == "" {
			return fmt.Errorf("secret backend %s requires an encryption key", c.SecretBackend)
		}
	case BackendExternalKMS:
		if c.KMSProvider != KMSProviderSecretsManager && c.KMSProvider != KMSProviderS3 {
			return fmt.Errorf("unknown KMS provider %q", c.KMSProvider)
		}
	default:
		return fmt.Errorf("unknown secret backend %q", c.SecretBackend)
	}
	if c.ValidationTimeout <= 0 {
		return fmt.Errorf("validation timeout must be positive")
	}
	return nil
}
