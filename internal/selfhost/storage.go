package selfhost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/models"
	"github.com/aora/backend/internal/repositories"
	"github.com/aora/backend/internal/storage"
)

// Storage writes file content to an object store and its metadata to PostgreSQL.
type Storage struct {
	objects storage.ObjectStore
	files   repositories.FileRepository
	now     func() time.Time
}

// NewStorage constructs the file storage resource.
func NewStorage(objects storage.ObjectStore, files repositories.FileRepository) *Storage {
	return &Storage{
		objects: objects,
		files:   files,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateFile uploads the asset to <bucketID>/<fileID>.
func (s *Storage) CreateFile(ctx context.Context, bucketID, fileID string, file models.FileAsset) (models.StoredFile, error) {
	if fileID == "" {
		fileID = backend.UniqueID()
	}
	content, err := file.Open()
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("create file: %w: %s", backend.ErrInvalidInput, err.Error())
	}
	defer content.Close()

	name := file.Name
	if name == "" {
		name = fileID
	}
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.objects.Put(ctx, storage.Key(bucketID, fileID), content, file.Size, contentType); err != nil {
		return models.StoredFile{}, fmt.Errorf("create file: %w", err)
	}

	stored := models.StoredFile{
		ID:        fileID,
		BucketID:  bucketID,
		Name:      name,
		MimeType:  contentType,
		Size:      file.Size,
		CreatedAt: s.now(),
	}
	if err := s.files.Create(ctx, stored); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.StoredFile{}, fmt.Errorf("create file: %w: file %s already exists", backend.ErrConflict, fileID)
		}
		return models.StoredFile{}, fmt.Errorf("record file: %w", err)
	}
	return stored, nil
}

// FileView returns the public URL of the stored object.
func (s *Storage) FileView(bucketID, fileID string) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("file view: empty file id")
	}
	return s.objects.URL(storage.Key(bucketID, fileID)), nil
}

// FilePreview returns the object URL carrying the transformation hints for an
// image proxy in front of the store.
func (s *Storage) FilePreview(bucketID, fileID string, opts backend.PreviewOptions) (string, error) {
	view, err := s.FileView(bucketID, fileID)
	if err != nil {
		return "", err
	}
	params := opts.Values()
	if len(params) == 0 {
		return view, nil
	}
	return view + "?" + params.Encode(), nil
}

var _ backend.Storage = (*Storage)(nil)
