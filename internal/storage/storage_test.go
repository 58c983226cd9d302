package storage_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abfit/coach-api/internal/config"
	"abfit/coach-api/internal/storage"
)

func TestStudentPhotoKey(t *testing.T) {
	key := storage.StudentPhotoKey("abc123", "image/png")
	assert.True(t, strings.HasPrefix(key, "students/abc123/photo-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)

	other := storage.StudentPhotoKey("abc123", "image/png")
	assert.NotEqual(t, key, other)

	assert.True(t, strings.HasSuffix(storage.StudentPhotoKey("abc123", "image/jpeg"), ".jpg"))
}

func TestIsImageContentType(t *testing.T) {
	assert.True(t, storage.IsImageContentType("image/jpeg"))
	assert.True(t, storage.IsImageContentType("image/png; charset=binary"))
	assert.False(t, storage.IsImageContentType("application/pdf"))
	assert.False(t, storage.IsImageContentType(""))
}

func TestDisabled(t *testing.T) {
	s := storage.Disabled()
	_, err := s.GeneratePresignedUploadURL(context.Background(), "k", "image/png", 0)
	assert.ErrorIs(t, err, storage.ErrStorageDisabled)
	assert.ErrorIs(t, s.DeleteObject(context.Background(), "k"), storage.ErrStorageDisabled)
}

// Presigning is computed locally, no server is contacted.
func TestS3Storage_PresignedURLs(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewS3Storage(ctx, config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketName:      "photos",
	})
	require.NoError(t, err)

	raw, err := s.GeneratePresignedUploadURL(ctx, "students/1/photo.png", "image/png", 5*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/photos/students/1/photo.png", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	raw, err = s.GeneratePresignedDownloadURL(ctx, "students/1/photo.png", 0)
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}
