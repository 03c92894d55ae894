package appwrite

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/models"
)

// Storage wraps the bucket file endpoints.
type Storage struct {
	client *Client
}

// CreateFile uploads the asset as a multipart form under fileID.
func (s *Storage) CreateFile(ctx context.Context, bucketID, fileID string, file models.FileAsset) (models.StoredFile, error) {
	reader, err := file.Open()
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("appwrite create file: %w", err)
	}
	defer reader.Close()

	name := file.Name
	if name == "" {
		name = fileID
	}
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var stored models.StoredFile
	resp, err := s.client.request(ctx).
		SetPathParam("bucketId", bucketID).
		SetMultipartFormData(map[string]string{"fileId": fileID}).
		SetMultipartField("file", name, contentType, reader).
		SetResult(&stored).
		Post("/storage/buckets/{bucketId}/files")
	if err := checkResponse("create file", resp, err); err != nil {
		return models.StoredFile{}, err
	}
	return stored, nil
}

// FileView returns the URL serving the file unmodified.
func (s *Storage) FileView(bucketID, fileID string) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("appwrite file view: empty file id")
	}
	path := fmt.Sprintf("/storage/buckets/%s/files/%s/view", url.PathEscape(bucketID), url.PathEscape(fileID))
	return s.client.resourceURL(path, nil)
}

// FilePreview returns the URL serving a transformed image of the file.
func (s *Storage) FilePreview(bucketID, fileID string, opts backend.PreviewOptions) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("appwrite file preview: empty file id")
	}
	path := fmt.Sprintf("/storage/buckets/%s/files/%s/preview", url.PathEscape(bucketID), url.PathEscape(fileID))
	return s.client.resourceURL(path, opts.Values())
}

var _ backend.Storage = (*Storage)(nil)
