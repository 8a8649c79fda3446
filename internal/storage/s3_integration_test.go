package storage_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"price-pipeline/internal/cloud"
	"price-pipeline/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUsername = "admin"
	minioPassword = "password"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupS3ObjectStore(t *testing.T, ctx context.Context, buckets ...string) *storage.S3ObjectStore {
	t.Helper()

	endpoint := setupMinioContainer(t, ctx)

	awsCfg, err := cloud.LoadAWSConfig(ctx, cloud.Config{
		Region:          "us-east-1",
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)

	client := cloud.NewS3Client(awsCfg, endpoint)
	for _, bucket := range buckets {
		_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		require.NoError(t, err)
	}

	return storage.NewS3ObjectStore(client)
}

func TestS3ObjectStore_PutAndGetObject(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	objectStore := setupS3ObjectStore(t, ctx, "processed-data-coffee-1")

	content := []byte("Test content")
	require.NoError(t, objectStore.PutObject(ctx, "processed-data-coffee-1", "coffee_data.parquet", bytes.NewReader(content)))

	data, err := objectStore.GetObject(ctx, "processed-data-coffee-1", "coffee_data.parquet")
	require.NoError(t, err)
	assert.Equal(t, content, data)

	require.NoError(t, objectStore.PutObject(ctx, "processed-data-coffee-1", "coffee_data.parquet", bytes.NewReader([]byte("v2"))))
	data, err = objectStore.GetObject(ctx, "processed-data-coffee-1", "coffee_data.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestS3ObjectStore_GetObjectNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	objectStore := setupS3ObjectStore(t, ctx, "raw-data-coffee-1")

	_, err := objectStore.GetObject(ctx, "raw-data-coffee-1", "missing.csv")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	_, err = objectStore.GetObject(ctx, "no-such-bucket", "missing.csv")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
