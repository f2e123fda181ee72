package secretstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3KeyManager.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
	return s3.NewFromConfig(cfg, optFns...)
}

// S3Settings configures the vault bucket.
type S3Settings struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	// KMSKeyID selects SSE-KMS; empty falls back to SSE-S3 (AES256).
	KMSKeyID string
}

// S3KeyManager stores each secret as a server-side encrypted object in a
// dedicated bucket (AWS S3 or MinIO). The reference is the object key.
type S3KeyManager struct {
	client   S3API
	bucket   string
	kmsKeyID string
}

// NewS3KeyManager wraps an existing client.
func NewS3KeyManager(client S3API, bucket, kmsKeyID string) *S3KeyManager {
	return &S3KeyManager{client: client, bucket: bucket, kmsKeyID: kmsKeyID}
}

// NewS3KeyManagerFromSettings builds a path-style client with static
// credentials, suitable for MinIO as well as AWS.
func NewS3KeyManagerFromSettings(ctx context.Context, s S3Settings) (*S3KeyManager, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
		}
		o.UsePathStyle = true
	})
	return NewS3KeyManager(client, s.Bucket, s.KMSKeyID), nil
}

func (m *S3KeyManager) Seal(ctx context.Context, name string, plaintext []byte) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(plaintext),
		ContentType: aws.String("application/json"),
	}
	if m.kmsKeyID != "" {
		in.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		in.SSEKMSKeyId = aws.String(m.kmsKeyID)
	} else {
		in.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}
	if _, err := m.client.PutObject(ctx, in); err != nil {
		return "", classifyAWSError("s3 put", err)
	}
	return name, nil
}

func (m *S3KeyManager) Unseal(ctx context.Context, ref string) ([]byte, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, classifyAWSError("s3 get", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, classifyAWSError("s3 read", err)
	}
	return b, nil
}

func (m *S3KeyManager) Destroy(ctx context.Context, ref string) error {
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(ref),
	})
	return classifyAWSError("s3 delete", err)
}
