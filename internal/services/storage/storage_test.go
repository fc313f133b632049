// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package storage_test

import (
	"context"
	"strings"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/brewlog/brewlog/internal/config"
	"codeberg.org/brewlog/brewlog/internal/services/storage"
)

type fakeClient struct {
	lastInput *s3.PutObjectInput
}

func (f *fakeClient) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastInput = params
	return &s3.PutObjectOutput{}, nil
}

type fakePresigner struct {
	lastInput *s3.PutObjectInput
}

func (f *fakePresigner) PresignPutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.lastInput = params
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + *params.Key, Method: "PUT"}, nil
}

func newTestService(endpoint string) (*storage.Service, *fakeClient, *fakePresigner) {
	client := &fakeClient{}
	presigner := &fakePresigner{}
	svc := storage.NewServiceWithClient(client, presigner, &config.StorageConfig{
		Bucket:   "brewlog-media",
		Region:   "eu-central-1",
		Endpoint: endpoint,
	})

	return svc, client, presigner
}

func TestUploadAvatar(t *testing.T) {
	svc, client, _ := newTestService("")

	url, err := svc.UploadAvatar(context.Background(), strings.NewReader("fake png"), "image/png")
	require.NoError(t, err)

	require.NotNil(t, client.lastInput)
	assert.Equal(t, "brewlog-media", *client.lastInput.Bucket)
	assert.Equal(t, "image/png", *client.lastInput.ContentType)

	key := *client.lastInput.Key
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://brewlog-media.s3.eu-central-1.amazonaws.com/"+key, url)
}

func TestUploadAvatar_UniqueKeys(t *testing.T) {
	svc, client, _ := newTestService("")

	_, err := svc.UploadAvatar(context.Background(), strings.NewReader("a"), "image/jpeg")
	require.NoError(t, err)
	first := *client.lastInput.Key

	_, err = svc.UploadAvatar(context.Background(), strings.NewReader("b"), "image/jpeg")
	require.NoError(t, err)
	second := *client.lastInput.Key

	assert.NotEqual(t, first, second)
}

func TestUploadAvatar_UnsupportedContentType(t *testing.T) {
	svc, client, _ := newTestService("")

	_, err := svc.UploadAvatar(context.Background(), strings.NewReader("nope"), "application/pdf")
	require.ErrorIs(t, err, storage.ErrUnsupportedContentType)
	assert.Nil(t, client.lastInput)
}

func TestPresignUpload(t *testing.T) {
	svc, _, presigner := newTestService("")

	uploadURL, objectURL, err := svc.PresignUpload(context.Background(), "image/webp")
	require.NoError(t, err)

	require.NotNil(t, presigner.lastInput)
	key := *presigner.lastInput.Key
	assert.True(t, strings.HasSuffix(key, ".webp"))
	assert.Equal(t, "https://signed.example.com/"+key, uploadURL)
	assert.Equal(t, "https://brewlog-media.s3.eu-central-1.amazonaws.com/"+key, objectURL)
}

func TestObjectURL_CustomEndpoint(t *testing.T) {
	svc, _, _ := newTestService("http://localhost:9000/")

	url := svc.ObjectURL("avatars/abc.png")
	assert.Equal(t, "http://localhost:9000/brewlog-media/avatars/abc.png", url)
}
