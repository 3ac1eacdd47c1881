package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ecomdash/backend/internal/infrastructure/config"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("access key without secret returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, &config.StorageConfig{AccessKey: "key"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("endpoint without scheme is accepted", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(ctx, &config.StorageConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "key",
			SecretKey: "secret",
		})
		require.NoError(t, err)
		assert.NotNil(t, storage)
	})
}

func newTestStorage(t *testing.T, handler http.HandlerFunc) *S3ObjectStorage {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	storage, err := NewS3ObjectStorage(context.Background(), &config.StorageConfig{
		Endpoint:     server.URL,
		Region:       "us-east-1",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return storage
}

func TestS3ObjectStorage_GetObject(t *testing.T) {
	t.Run("reads the object body", func(t *testing.T) {
		storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/datasets/olist/ecommerce.csv", r.URL.Path)
			w.Header().Set("ETag", `"abc123"`)
			_, _ = w.Write([]byte("customer_state\nSP\n"))
		})

		obj, err := storage.GetObject(context.Background(), "datasets", "olist/ecommerce.csv")
		require.NoError(t, err)
		defer obj.Body.Close()

		data, err := io.ReadAll(obj.Body)
		require.NoError(t, err)
		assert.Equal(t, "customer_state\nSP\n", string(data))
		assert.Equal(t, int64(18), obj.ContentLength)
		assert.Equal(t, "abc123", obj.ETag)
	})

	t.Run("missing key maps to ErrObjectNotFound", func(t *testing.T) {
		storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		})

		_, err := storage.GetObject(context.Background(), "datasets", "missing.csv")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrObjectNotFound))
	})

	t.Run("empty key returns error", func(t *testing.T) {
		storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

		_, err := storage.GetObject(context.Background(), "datasets", "")
		assert.Error(t, err)
	})
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://datasets/ecommerce.csv", "datasets", "ecommerce.csv", true},
		{"s3://datasets/nested/path/ecommerce.csv", "datasets", "nested/path/ecommerce.csv", true},
		{"s3://datasets/", "", "", false},
		{"s3:///ecommerce.csv", "", "", false},
		{"https://datasets/ecommerce.csv", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}
