package secretstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/xconnect/internal/common"
)

type fakeSecretsManager struct {
	SecretsManagerAPI
	created   map[string]string
	createIn  *secretsmanager.CreateSecretInput
	deleteIn  *secretsmanager.DeleteSecretInput
	getErr    error
	createErr error
}

func (f *fakeSecretsManager) CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createIn = in
	arn := "arn:aws:secretsmanager:us-east-1:000000000000:secret:" + aws.ToString(in.Name)
	f.created[arn] = aws.ToString(in.SecretString)
	return &secretsmanager.CreateSecretOutput{ARN: aws.String(arn), Name: in.Name}, nil
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.created[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("missing")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func (f *fakeSecretsManager) DeleteSecret(ctx context.Context, in *secretsmanager.DeleteSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	f.deleteIn = in
	if _, ok := f.created[aws.ToString(in.SecretId)]; !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("missing")}
	}
	delete(f.created, aws.ToString(in.SecretId))
	return &secretsmanager.DeleteSecretOutput{}, nil
}

func TestSecretsManagerKeyManager_RoundTrip(t *testing.T) {
	fake := &fakeSecretsManager{created: map[string]string{}}
	km := NewSecretsManagerKeyManager(fake)
	ctx := context.Background()

	ref, err := km.Seal(ctx, "xconnect/u1/github/r1", []byte(`{"token":"t"}`))
	require.NoError(t, err)
	assert.Contains(t, ref, "xconnect/u1/github/r1")
	assert.Equal(t, "xconnect/u1/github/r1", aws.ToString(fake.createIn.Name))

	got, err := km.Unseal(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t"}`, string(got))

	require.NoError(t, km.Destroy(ctx, ref))
	assert.True(t, aws.ToBool(fake.deleteIn.ForceDeleteWithoutRecovery))

	_, err = km.Unseal(ctx, ref)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = km.Destroy(ctx, ref)
	assert.ErrorIs(t, err, common.ErrorNotFound, "KMSBackend treats this as already destroyed")
}

func TestSecretsManagerKeyManager_TransientErrors(t *testing.T) {
	fake := &fakeSecretsManager{
		created:   map[string]string{},
		getErr:    &smithy.GenericAPIError{Code: "ThrottlingException"},
		createErr: &smtypes.InternalServiceError{},
	}
	km := NewSecretsManagerKeyManager(fake)

	_, err := km.Unseal(context.Background(), "ref")
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)

	_, err = km.Seal(context.Background(), "n", []byte("x"))
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
}

func TestNewSecretsManagerKeyManagerFromEnv(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newSecretsManagerFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newSecretsManagerFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		return aws.Config{Region: lo.Region}, nil
	}
	fake := &fakeSecretsManager{created: map[string]string{}}
	newSecretsManagerFromConfig = func(cfg aws.Config, optFns ...func(*secretsmanager.Options)) SecretsManagerAPI {
		assert.Equal(t, "eu-west-1", cfg.Region)
		return fake
	}

	km, err := NewSecretsManagerKeyManagerFromEnv(context.Background(), "eu-west-1")
	require.NoError(t, err)
	assert.Same(t, fake, km.client)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}
	_, err = NewSecretsManagerKeyManagerFromEnv(context.Background(), "eu-west-1")
	assert.Error(t, err)
}
