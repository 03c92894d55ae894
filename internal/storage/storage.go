// Package storage writes uploaded assets to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ObjectStore persists objects under a key and exposes them at a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(key string) string
}

// Key joins path segments into an object key.
func Key(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			cleaned = append(cleaned, part)
		}
	}
	return strings.Join(cleaned, "/")
}

func publicURL(baseURL, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	escaped := strings.Join(segments, "/")
	if baseURL == "" {
		return escaped
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), escaped)
}
