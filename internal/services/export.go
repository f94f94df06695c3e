package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jjudge-oj/authsvc/types"
)

// ObjectWriter is the slice of object storage the export needs.
type ObjectWriter interface {
	EnsureBucket(ctx context.Context) error
	PutJSON(ctx context.Context, key string, value any) error
	Bucket() string
}

// DirectoryExport is the document written by ExportService. It is built from
// stripped views only.
type DirectoryExport struct {
	ExportedAt time.Time          `json:"exported_at"`
	Count      int                `json:"count"`
	Users      []types.PublicUser `json:"users"`
}

// ExportService snapshots the directory into object storage.
type ExportService struct {
	users  UserRepository
	writer ObjectWriter
	now    func() time.Time
}

func NewExportService(users UserRepository, writer ObjectWriter) *ExportService {
	return &ExportService{users: users, writer: writer, now: time.Now}
}

// Export uploads the current directory and returns the object key.
func (s *ExportService) Export(ctx context.Context) (string, int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return "", 0, internalError("failed to list users", err)
	}

	if err := s.writer.EnsureBucket(ctx); err != nil {
		return "", 0, internalError("failed to prepare bucket", err)
	}

	exportedAt := s.now().UTC()
	key := fmt.Sprintf("exports/users-%d.json", exportedAt.Unix())
	doc := DirectoryExport{
		ExportedAt: exportedAt,
		Count:      len(users),
		Users:      users,
	}
	if err := s.writer.PutJSON(ctx, key, doc); err != nil {
		return "", 0, internalError("failed to upload export", err)
	}
	return key, len(users), nil
}
