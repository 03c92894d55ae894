package models

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Document carries the system attributes the backend attaches to every stored record.
type Document struct {
	ID           string    `json:"$id"`
	CollectionID string    `json:"$collectionId,omitempty"`
	DatabaseID   string    `json:"$databaseId,omitempty"`
	CreatedAt    time.Time `json:"$createdAt"`
	UpdatedAt    time.Time `json:"$updatedAt"`
}

// Account is a backend identity able to hold sessions.
type Account struct {
	ID        string    `json:"$id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"$createdAt"`
}

// Session is the handle returned by sign-in. Secret is empty when the backend
// keeps it in a cookie instead of the response body.
type Session struct {
	ID        string    `json:"$id"`
	UserID    string    `json:"userId"`
	Secret    string    `json:"secret,omitempty"`
	ExpiresAt time.Time `json:"expire"`
	CreatedAt time.Time `json:"$createdAt"`
}

// User is the profile document linked 1:1 to an account through AccountID.
type User struct {
	Document
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
}

// Video is a post in the videos collection.
type Video struct {
	Document
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Video     string   `json:"video"`
	Prompt    string   `json:"prompt"`
	Creator   Relation `json:"users"`
}

// Relation references another document. The hosted backend expands
// relationships on read, so the wire form is either an id string or the
// related user document.
type Relation struct {
	ID   string
	User *User
}

// MarshalJSON writes the expanded user document when present and the bare
// document id otherwise.
func (r Relation) MarshalJSON() ([]byte, error) {
	if r.User != nil {
		return json.Marshal(*r.User)
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts either an id string or an expanded user document.
func (r *Relation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Relation{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Relation{ID: id}
		return nil
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return err
	}
	*r = Relation{ID: user.ID, User: &user}
	return nil
}

// FileAsset describes a client-local file submitted for upload. Reader takes
// precedence over URI when both are set.
type FileAsset struct {
	Name     string    `json:"fileName"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"filesize"`
	URI      string    `json:"uri"`
	Reader   io.Reader `json:"-"`
}

// Open returns the asset content, preferring Reader over the local URI.
func (f FileAsset) Open() (io.ReadCloser, error) {
	if f.Reader != nil {
		if rc, ok := f.Reader.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(f.Reader), nil
	}
	path := strings.TrimPrefix(f.URI, "file://")
	if path == "" {
		return nil, fmt.Errorf("asset %q has no content", f.Name)
	}
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return file, nil
}

// AccountRecord is the persisted form of an Account.
type AccountRecord struct {
	Account
	PasswordHash string
	UpdatedAt    time.Time
}

// StoredFile is the backend's record of an uploaded asset.
type StoredFile struct {
	ID        string    `json:"$id"`
	BucketID  string    `json:"bucketId"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"sizeOriginal"`
	CreatedAt time.Time `json:"$createdAt"`
}

// VideoForm is the input to video creation.
type VideoForm struct {
	Title     string
	Prompt    string
	UserID    string
	Thumbnail *FileAsset
	Video     *FileAsset
}
