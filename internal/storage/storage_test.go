package storage

import (
	"context"
	"testing"

	"github.com/aora/backend/internal/config"
)

func TestKey(t *testing.T) {
	if got := Key("/bucket/", "", "file-1"); got != "bucket/file-1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestPublicURL(t *testing.T) {
	if got := publicURL("https://cdn.example.com/", "bucket/my clip.mp4"); got != "https://cdn.example.com/bucket/my%20clip.mp4" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := publicURL("", "bucket/file"); got != "bucket/file" {
		t.Fatalf("unexpected url without base %q", got)
	}
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected missing bucket to fail")
	}
}

func TestS3StorageURL(t *testing.T) {
	store, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
		Bucket:    "aora",
		Region:    "eu-west-1",
		AccessKey: "key",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("new s3 storage: %v", err)
	}
	if got := store.URL("bucket/file-1"); got != "https://aora.s3.eu-west-1.amazonaws.com/bucket/file-1" {
		t.Fatalf("unexpected url %q", got)
	}

	custom, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
		Bucket:        "aora",
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		PublicBaseURL: "https://cdn.aora.dev/",
		AccessKey:     "key",
		SecretKey:     "secret",
	})
	if err != nil {
		t.Fatalf("new s3 storage: %v", err)
	}
	if got := custom.URL("/bucket/file-1"); got != "https://cdn.aora.dev/bucket/file-1" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewMinioStorageValidation(t *testing.T) {
	if _, err := NewMinioStorage(context.Background(), config.ObjectStoreConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected missing bucket to fail")
	}
	if _, err := NewMinioStorage(context.Background(), config.ObjectStoreConfig{Bucket: "aora"}); err == nil {
		t.Fatal("expected missing endpoint to fail")
	}
}
