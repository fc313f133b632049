// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package storage uploads user avatars to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"codeberg.org/brewlog/brewlog/internal/config"
)

// PresignExpiry is how long a presigned upload URL stays valid.
const PresignExpiry = time.Hour

// ErrUnsupportedContentType is returned for uploads that are not images
// we know how to serve.
var ErrUnsupportedContentType = fmt.Errorf("unsupported content type")

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Client is the subset of the S3 API the service uses.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner produces presigned upload URLs.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Service stores avatars under a deterministic key layout and hands out
// public URLs for them.
type Service struct {
	client    Client
	presigner Presigner
	bucket    string
	region    string
	endpoint  string
}

// NewService builds an S3 client from the storage configuration. A custom
// endpoint switches the client to path-style addressing, which is what
// MinIO and friends expect.
func NewService(ctx context.Context, cfg *config.StorageConfig) (*Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Service{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  cfg.Endpoint,
	}, nil
}

// NewServiceWithClient wires a custom client, used by tests.
func NewServiceWithClient(client Client, presigner Presigner, cfg *config.StorageConfig) *Service {
	return &Service{
		client:    client,
		presigner: presigner,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  cfg.Endpoint,
	}
}

// UploadAvatar stores the image under avatars/<uuid>.<ext> and returns
// the public URL of the stored object.
func (s *Service) UploadAvatar(ctx context.Context, body io.Reader, contentType string) (string, error) {
	key, err := avatarKey(contentType)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	url := s.ObjectURL(key)
	slog.Info("avatar_uploaded", "key", key)

	return url, nil
}

// PresignUpload returns a presigned PUT URL for a fresh avatar key. The
// caller uploads directly and then records the object URL on the profile.
func (s *Service) PresignUpload(ctx context.Context, contentType string) (uploadURL, objectURL string, err error) {
	key, err := avatarKey(contentType)
	if err != nil {
		return "", "", err
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignOptions) {
		o.Expires = PresignExpiry
	})
	if err != nil {
		return "", "", fmt.Errorf("presign put object: %w", err)
	}

	return req.URL, s.ObjectURL(key), nil
}

// ObjectURL returns the public URL for a stored object.
func (s *Service) ObjectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), s.bucket, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func avatarKey(contentType string) (string, error) {
	ext, ok := extByContentType[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	return fmt.Sprintf("avatars/%s.%s", uuid.NewString(), ext), nil
}
