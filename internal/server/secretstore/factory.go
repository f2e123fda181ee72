package secretstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/xconnect/internal/cryptox"
	"github.com/dmitrijs2005/xconnect/internal/server/config"
)

// NewBackend builds the backend selected by cfg.SecretBackend.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.SecretBackend {
	case config.BackendLocalEncrypted:
		key, err := cryptox.ParseKey(cfg.EncryptionKey, []byte(cfg.EncryptionSalt))
		if err != nil {
			return nil, err
		}
		return NewLocalBackend(key)

	case config.BackendExternalKMS:
		var km KeyManager
		switch cfg.KMSProvider {
		case config.KMSProviderSecretsManager:
			sm, err := NewSecretsManagerKeyManagerFromEnv(ctx, cfg.AWSRegion)
			if err != nil {
				return nil, err
			}
			km = sm
		case config.KMSProviderS3:
			s3km, err := NewS3KeyManagerFromSettings(ctx, S3Settings{
				Region:       cfg.AWSRegion,
				AccessKey:    cfg.S3RootUser,
				SecretKey:    cfg.S3RootPassword,
				BaseEndpoint: cfg.S3BaseEndpoint,
				Bucket:       cfg.S3Bucket,
				KMSKeyID:     cfg.S3KMSKeyID,
			})
			if err != nil {
				return nil, err
			}
			km = s3km
		default:
			return nil, fmt.Errorf("unknown KMS provider %q", cfg.KMSProvider)
		}
		return NewKMSBackend(km, cfg.KMSPrefix), nil
	}
	return nil, fmt.Errorf("unknown secret backend %q", cfg.SecretBackend)
}
