package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-k", "-x", "-m", "-g", "-u", "-p", "-b", "-e", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k string   secret backend (local_encrypted | external_kms)
//	-x string   encryption key for local_encrypted
//	-m string   KMS provider (secretsmanager | s3)
//	-g string   AWS region
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level (debug | info | warn | error)
func parseFlags(config *Config, args []string) {
	filtered := flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.SecretBackend, "k", config.SecretBackend, "secret backend")
	fs.StringVar(&config.EncryptionKey, "x", config.EncryptionKey, "encryption key")
	fs.StringVar(&config.KMSProvider, "m", config.KMSProvider, "KMS provider")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
