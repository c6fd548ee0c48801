//go:build integration

package storage

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ekamlabs/ekamquery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(ctx context.Context, t *testing.T, rc *testutil.RustFSContainer) *S3Client {
	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "ekam-uploads",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))
	return client
}

func TestS3Client_Archive(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	client := newTestClient(ctx, t, rc)

	content := []byte("plain text body")
	require.NoError(t, client.Archive(ctx, "notes.txt", "text/plain", content))

	out, err := client.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String("ekam-uploads"),
		Key:    aws.String("uploads/notes.txt"),
	})
	require.NoError(t, err)
	defer out.Body.Close()

	stored, err := io.ReadAll(out.Body)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
	if out.ContentType != nil {
		assert.Equal(t, "text/plain", *out.ContentType)
	}
}

func TestS3Client_EnsureBucket_Idempotent(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	client := newTestClient(ctx, t, rc)
	assert.NoError(t, client.EnsureBucket(ctx))
}
