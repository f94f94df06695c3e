// Package storage uploads directory exports to object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jjudge-oj/authsvc/config"
)

const (
	// Exports hold personal data and must never be served from a cache.
	exportCacheControl = "private, no-store"

	exportMetadataKey   = "exported-by"
	exportMetadataValue = "authsvc"

	// Objects up to this size are uploaded in one request instead of a
	// resumable session.
	singleRequestLimit = 8 << 20
)

// ObjectStorage is implemented by each bucket backend.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
	Close() error
}

// Storage adds JSON encoding on top of a backend.
type Storage struct {
	backend ObjectStorage
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// PutJSON encodes value and uploads it under key as application/json.
func (s *Storage) PutJSON(ctx context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json")
}

func (s *Storage) Close() error {
	return s.backend.Close()
}

// Open builds the backend selected by cfg.ExportBackend.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	switch cfg.ExportBackend {
	case config.ExportMinio:
		backend, err := NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	case config.ExportGCS:
		backend, err := NewGCSStore(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown export backend %q", cfg.ExportBackend)
	}
}
