// Package backend defines the contract the gateway needs from a hosted
// backend service: accounts and sessions, schema-flexible documents, file
// storage and avatar URLs.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/aora/backend/internal/models"
)

// CurrentSession addresses the session attached to the caller.
const CurrentSession = "current"

var (
	// ErrUnauthorized indicates the call requires an authenticated session.
	ErrUnauthorized = errors.New("backend: session required")
	// ErrConflict indicates the resource already exists.
	ErrConflict = errors.New("backend: resource already exists")
	// ErrNotFound indicates the addressed resource does not exist.
	ErrNotFound = errors.New("backend: resource not found")
	// ErrInvalidInput indicates the backend rejected the request parameters.
	ErrInvalidInput = errors.New("backend: invalid input")
)

// Accounts manages backend accounts and their sessions.
type Accounts interface {
	Create(ctx context.Context, accountID, email, password, name string) (models.Account, error)
	CreateEmailSession(ctx context.Context, email, password string) (models.Session, error)
	Get(ctx context.Context) (models.Account, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Documents stores schema-flexible records in named collections.
type Documents interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (json.RawMessage, error)
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...Query) (DocumentList, error)
}

// Storage persists uploaded files and resolves URLs for them. URL resolution
// is a local computation and never contacts the backend.
type Storage interface {
	CreateFile(ctx context.Context, bucketID, fileID string, file models.FileAsset) (models.StoredFile, error)
	FileView(bucketID, fileID string) (string, error)
	FilePreview(bucketID, fileID string, opts PreviewOptions) (string, error)
}

// Avatars builds placeholder avatar URLs.
type Avatars interface {
	Initials(name string) (string, error)
}

// PreviewOptions are the image transformation hints sent with a preview URL.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// Values encodes the set options as URL query parameters.
func (o PreviewOptions) Values() url.Values {
	params := url.Values{}
	if o.Width > 0 {
		params.Set("width", strconv.Itoa(o.Width))
	}
	if o.Height > 0 {
		params.Set("height", strconv.Itoa(o.Height))
	}
	if o.Gravity != "" {
		params.Set("gravity", o.Gravity)
	}
	if o.Quality > 0 {
		params.Set("quality", strconv.Itoa(o.Quality))
	}
	return params
}

// DocumentList is a page of raw documents as returned by the backend.
type DocumentList struct {
	Total     int               `json:"total"`
	Documents []json.RawMessage `json:"documents"`
}

// DecodeDocument unmarshals a single raw document.
func DecodeDocument[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// DecodeDocuments unmarshals every document in the list, preserving order.
func DecodeDocuments[T any](list DocumentList) ([]T, error) {
	out := make([]T, 0, len(list.Documents))
	for _, raw := range list.Documents {
		doc, err := DecodeDocument[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// UniqueID returns a fresh identifier accepted by the backend as a custom id.
func UniqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
