package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{
			"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-t", "5",
			"-k", "external_kms", "-x", "key", "-m", "s3", "-g", "us-west-1",
			"-u", "user", "-p", "password", "-b", "bucket", "-e", "http://endpoint", "-l", "debug",
		},
			expected: &Config{
				EndpointAddrGRPC:            "127.0.0.1:9090",
				DatabaseDSN:                 "db",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 5 * time.Minute,
				LogLevel:                    "debug",
				SecretBackend:               "external_kms",
				EncryptionKey:               "key",
				KMSProvider:                 "s3",
				AWSRegion:                   "us-west-1",
				S3RootUser:                  "user",
				S3RootPassword:              "password",
				S3Bucket:                    "bucket",
				S3BaseEndpoint:              "http://endpoint",
			}},
		{name: "foreign flags ignored", args: []string{"-c", "cfg.json", "-z", "1", "-a", ":1"},
			expected: &Config{EndpointAddrGRPC: ":1"}},
		{name: "bad int panics", args: []string{"-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config, tt.args) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config, tt.args) })
			}
		})
	}
}
