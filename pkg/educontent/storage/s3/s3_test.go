package s3

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/edu-content/pkg/educontent"
)

func testConfig() Config {
	return Config{
		Region:          "us-east-1",
		Bucket:          "edu-assets",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}
}

func TestS3Backend_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(context.Background(), Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("InvalidSSE", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableSSE = true
		cfg.SSEAlgorithm = "rot13"
		_, err := New(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported SSE algorithm")
	})

	t.Run("Defaults", func(t *testing.T) {
		cfg := testConfig()
		cfg.Region = ""
		cfg.KeyPrefix = "/uploads/"
		backend, err := New(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, 3600*time.Second, backend.presignDuration)
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, "uploads/stories/f1", backend.key("stories/f1"))
	})
}

func TestS3Backend_PresignedURLs(t *testing.T) {
	backend, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	raw, err := backend.GetDownloadURL(context.Background(), "resources/doc-1", "guide.pdf")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/edu-assets/resources/doc-1", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "attachment; filename=guide.pdf", u.Query().Get("response-content-disposition"))

	raw, err = backend.GetDownloadURL(context.Background(), "resources/doc-2", "Study Guide.pdf")
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, `attachment; filename="Study Guide.pdf"`, u.Query().Get("response-content-disposition"))

	raw, err = backend.GetPreviewURL(context.Background(), "stories/img-1")
	require.NoError(t, err)
	assert.Contains(t, raw, "response-content-disposition=inline")
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed NoSuchKey", &types.NoSuchKey{}, true},
		{"typed NotFound", &types.NotFound{}, true},
		{"generic NoSuchKey", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"wrapped NotFound", fmt.Errorf("head: %w", &smithy.GenericAPIError{Code: "NotFound"}), true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func TestBucketMissing(t *testing.T) {
	assert.True(t, bucketMissing(&types.NoSuchBucket{}))
	assert.True(t, bucketMissing(&types.NotFound{}))
	assert.True(t, bucketMissing(&smithy.GenericAPIError{Code: "BadRequest"}))
	assert.False(t, bucketMissing(&smithy.GenericAPIError{Code: "AccessDenied"}))
}

func TestObjectErrorMapsNotFound(t *testing.T) {
	backend, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	err = backend.objectError("get", "stories/x", &types.NoSuchKey{})
	assert.ErrorIs(t, err, educontent.ErrNotFound)

	err = backend.objectError("get", "stories/x", &smithy.GenericAPIError{Code: "AccessDenied"})
	assert.NotErrorIs(t, err, educontent.ErrNotFound)
	assert.Contains(t, err.Error(), "s3: get stories/x")
}
