package storage

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/jjudge-oj/authsvc/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	key         string
	contentType string
	size        int64
	body        []byte
}

func (b *recordingBackend) EnsureBucket(ctx context.Context) error { return nil }

func (b *recordingBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.key, b.size, b.contentType, b.body = key, size, contentType, data
	return nil
}

func (b *recordingBackend) Bucket() string { return "test-bucket" }

func (b *recordingBackend) Close() error { return nil }

func TestPutJSON(t *testing.T) {
	backend := &recordingBackend{}
	s := NewStorage(backend)

	err := s.PutJSON(context.Background(), "exports/users.json", map[string]int{"count": 2})
	require.NoError(t, err)

	assert.Equal(t, "exports/users.json", backend.key)
	assert.Equal(t, "application/json", backend.contentType)
	assert.Equal(t, int64(len(backend.body)), backend.size)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(backend.body, &decoded))
	assert.Equal(t, 2, decoded["count"])
	assert.Equal(t, "test-bucket", s.Bucket())
}

func TestOpenValidatesBackend(t *testing.T) {
	_, err := Open(context.Background(), config.Config{ExportBackend: "ftp"})
	assert.ErrorContains(t, err, "unknown export backend")

	_, err = Open(context.Background(), config.Config{ExportBackend: config.ExportMinio})
	assert.ErrorContains(t, err, "MINIO_ENDPOINT is required")

	_, err = Open(context.Background(), config.Config{ExportBackend: config.ExportGCS})
	assert.ErrorContains(t, err, "GCS_BUCKET is required")
}

func TestNewMinioStoreReportsAllMissingSettings(t *testing.T) {
	_, err := NewMinioStore(config.MinioConfig{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "MINIO_ENDPOINT")
	assert.ErrorContains(t, err, "MINIO_ACCESS_KEY")
	assert.ErrorContains(t, err, "MINIO_BUCKET")
}
