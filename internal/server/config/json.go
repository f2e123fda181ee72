package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/xconnect/internal/flagx"
	"github.com/dmitrijs2005/xconnect/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "10s" and integer nanoseconds are accepted. Fields
// absent from the file keep their previous value.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`
	SecretBackend               string         `json:"secret_backend"`
	EncryptionKey               string         `json:"encryption_key"`
	EncryptionSalt              string         `json:"encryption_salt"`
	KMSProvider                 string         `json:"kms_provider"`
	KMSPrefix                   string         `json:"kms_prefix"`
	AWSRegion                   string         `json:"aws_region"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3KMSKeyID                  string         `json:"s3_kms_key_id"`
	GitHubBaseURL               string         `json:"github_base_url"`
	ValidationTimeout           timex.Duration `json:"validation_timeout"`
	RetryBackoff                timex.Duration `json:"retry_backoff"`
	HTTPTimeout                 timex.Duration `json:"http_timeout"`
}

// parseJson loads values from the file named by -c/-config into config.
// Without the flag nothing is loaded. Unreadable files or invalid JSON panic.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SecretBackend, c.SecretBackend)
	setString(&config.EncryptionKey, c.EncryptionKey)
	setString(&config.EncryptionSalt, c.EncryptionSalt)
	setString(&config.KMSProvider, c.KMSProvider)
	setString(&config.KMSPrefix, c.KMSPrefix)
	setString(&config.AWSRegion, c.AWSRegion)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3KMSKeyID, c.S3KMSKeyID)
	setString(&config.GitHubBaseURL, c.GitHubBaseURL)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ValidationTimeout.Duration > 0 {
		config.ValidationTimeout = c.ValidationTimeout.Duration
	}
	if c.RetryBackoff.Duration > 0 {
		config.RetryBackoff = c.RetryBackoff.Duration
	}
	if c.HTTPTimeout.Duration > 0 {
		config.HTTPTimeout = c.HTTPTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
