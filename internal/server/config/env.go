package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig lists the environment variables the server honours. Secrets
// (database DSN, JWT key, encryption key, S3 password) are expected here
// rather than in the JSON file.
type EnvConfig struct {
	EndpointAddrGRPC  string        `env:"XCONNECT_GRPC_ADDR"`
	DatabaseDSN       string        `env:"XCONNECT_DATABASE_DSN"`
	SecretKey         string        `env:"XCONNECT_JWT_SECRET"`
	LogLevel          string        `env:"XCONNECT_LOG_LEVEL"`
	SecretBackend     string        `env:"XCONNECT_SECRET_BACKEND"`
	EncryptionKey     string        `env:"XCONNECT_ENCRYPTION_KEY"`
	EncryptionSalt    string        `env:"XCONNECT_ENCRYPTION_SALT"`
	KMSProvider       string        `env:"XCONNECT_KMS_PROVIDER"`
	KMSPrefix         string        `env:"XCONNECT_KMS_PREFIX"`
	AWSRegion         string        `env:"AWS_REGION"`
	S3RootUser        string        `env:"XCONNECT_S3_USER"`
	S3RootPassword    string        `env:"XCONNECT_S3_PASSWORD"`
	S3Bucket          string        `env:"XCONNECT_S3_BUCKET"`
	S3BaseEndpoint    string        `env:"XCONNECT_S3_ENDPOINT"`
	S3KMSKeyID        string        `env:"XCONNECT_S3_KMS_KEY_ID"`
	GitHubBaseURL     string        `env:"XCONNECT_GITHUB_BASE_URL"`
	ValidationTimeout time.Duration `env:"XCONNECT_VALIDATION_TIMEOUT"`
	RetryBackoff      time.Duration `env:"XCONNECT_RETRY_BACKOFF"`
	HTTPTimeout       time.Duration `env:"XCONNECT_HTTP_TIMEOUT"`
}

// parseEnv overlays non-empty environment variables onto config.
func parseEnv(config *Config) {
	var e EnvConfig
	if err := cleanenv.ReadEnv(&e); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, e.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.SecretKey, e.SecretKey)
	setString(&config.LogLevel, e.LogLevel)
	setString(&config.SecretBackend, e.SecretBackend)
	setString(&config.EncryptionKey, e.EncryptionKey)
	setString(&config.EncryptionSalt, e.EncryptionSalt)
	setString(&config.KMSProvider, e.KMSProvider)
	setString(&config.KMSPrefix, e.KMSPrefix)
	setString(&config.AWSRegion, e.AWSRegion)
	setString(&config.S3RootUser, e.S3RootUser)
	setString(&config.S3RootPassword, e.S3RootPassword)
	setString(&config.S3Bucket, e.S3Bucket)
	setString(&config.S3BaseEndpoint, e.S3BaseEndpoint)
	setString(&config.S3KMSKeyID, e.S3KMSKeyID)
	setString(&config.GitHubBaseURL, e.GitHubBaseURL)

	if e.ValidationTimeout > 0 {
		config.ValidationTimeout = e.ValidationTimeout
	}
	if e.RetryBackoff > 0 {
		config.RetryBackoff = e.RetryBackoff
	}
	if e.HTTPTimeout > 0 {
		config.HTTPTimeout = e.HTTPTimeout
	}
}
