package secretstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the subset of *secretsmanager.Client used here.
type SecretsManagerAPI interface {
	CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	DeleteSecret(ctx context.Context, in *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

var (
	loadDefaultAWSConfig        = config.LoadDefaultConfig
	newSecretsManagerFromConfig = func(cfg aws.Config, optFns ...func(*secretsmanager.Options)) SecretsManagerAPI {
		return secretsmanager.NewFromConfig(cfg, optFns...)
	}
)

// SecretsManagerKeyManager keeps one AWS Secrets Manager secret per record.
// The reference it returns is the secret ARN (or the name when the service
// does not report one).
type SecretsManagerKeyManager struct {
	client SecretsManagerAPI
}

// NewSecretsManagerKeyManager wraps an existing client.
func NewSecretsManagerKeyManager(client SecretsManagerAPI) *SecretsManagerKeyManager {
	return &SecretsManagerKeyManager{client: client}
}

// NewSecretsManagerKeyManagerFromEnv builds a client from the default AWS
// credential chain for region.
func NewSecretsManagerKeyManagerFromEnv(ctx context.Context, region string) (*SecretsManagerKeyManager, error) {
	cfg, err := loadDefaultAWSConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSecretsManagerKeyManager(newSecretsManagerFromConfig(cfg)), nil
}

func (m *SecretsManagerKeyManager) Seal(ctx context.Context, name string, plaintext []byte) (string, error) {
	out, err := m.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(string(plaintext)),
		Description:  aws.String("xconnect integration credential"),
		Tags: []smtypes.Tag{
			{Key: aws.String("app"), Value: aws.String("xconnect")},
		},
	})
	if err != nil {
		return "", classifyAWSError("secretsmanager create", err)
	}
	if arn := aws.ToString(out.ARN); arn != "" {
		return arn, nil
	}
	return name, nil
}

func (m *SecretsManagerKeyManager) Unseal(ctx context.Context, ref string) ([]byte, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return nil, classifyAWSError("secretsmanager get", err)
	}
	if out.SecretString != nil {
		return []byte(*out.SecretString), nil
	}
	return out.SecretBinary, nil
}

func (m *SecretsManagerKeyManager) Destroy(ctx context.Context, ref string) error {
	_, err := m.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(ref),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	return classifyAWSError("secretsmanager delete", err)
}
