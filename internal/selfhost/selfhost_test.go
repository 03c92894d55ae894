package selfhost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/models"
	"github.com/aora/backend/internal/repositories"
)

type memoryAccounts struct {
	mu       sync.Mutex
	byID     map[string]models.AccountRecord
	byEmail  map[string]string
	failWith error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: map[string]models.AccountRecord{}, byEmail: map[string]string{}}
}

func (m *memoryAccounts) Create(_ context.Context, account models.AccountRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.byID[account.ID]; ok {
		return repositories.ErrConflict
	}
	if _, ok := m.byEmail[account.Email]; ok {
		return repositories.ErrConflict
	}
	m.byID[account.ID] = account
	m.byEmail[account.Email] = account.ID
	return nil
}

func (m *memoryAccounts) FindByEmail(_ context.Context, email string) (models.AccountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return models.AccountRecord{}, repositories.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memoryAccounts) FindByID(_ context.Context, id string) (models.AccountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byID[id]
	if !ok {
		return models.AccountRecord{}, repositories.ErrNotFound
	}
	return account, nil
}

type memoryDocuments struct {
	mu      sync.Mutex
	records []repositories.DocumentRecord
	queries [][]backend.Query
}

func (m *memoryDocuments) Insert(_ context.Context, doc repositories.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.DatabaseID == doc.DatabaseID && existing.CollectionID == doc.CollectionID && existing.ID == doc.ID {
			return repositories.ErrConflict
		}
	}
	m.records = append(m.records, doc)
	return nil
}

// List supports equal filters only and returns matches in insertion order.
func (m *memoryDocuments) List(_ context.Context, databaseID, collectionID string, queries []backend.Query) ([]repositories.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, queries)
	for _, q := range queries {
		if q.Method != backend.MethodEqual {
			return nil, repositories.ErrUnsupportedQuery
		}
	}

	var out []repositories.DocumentRecord
	for _, record := range m.records {
		if record.DatabaseID != databaseID || record.CollectionID != collectionID {
			continue
		}
		var fields map[string]any
		_ = json.Unmarshal(record.Data, &fields)
		match := true
		for _, q := range queries {
			value := fmt.Sprint(fields[q.Attribute])
			if q.Attribute == backend.AttrID {
				value = record.ID
			}
			found := false
			for _, v := range q.Values {
				if fmt.Sprint(v) == value {
					found = true
				}
			}
			match = match && found
		}
		if match {
			out = append(out, record)
		}
	}
	return out, nil
}

type memoryFiles struct {
	mu    sync.Mutex
	files map[string]models.StoredFile
}

func (m *memoryFiles) Create(_ context.Context, file models.StoredFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string]models.StoredFile{}
	}
	key := file.BucketID + "/" + file.ID
	if _, ok := m.files[key]; ok {
		return repositories.ErrConflict
	}
	m.files[key] = file
	return nil
}

func (m *memoryFiles) has(bucketID, fileID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[bucketID+"/"+fileID]
	return ok
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func (m *memoryObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
		m.types = map[string]string{}
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryObjects) URL(key string) string {
	return "https://cdn.test/" + key
}

func newTestAccounts(t *testing.T) (*Accounts, *memoryAccounts) {
	t.Helper()
	repo := newMemoryAccounts()
	return NewAccounts(repo, auth.NewManager(time.Hour, auth.NewInMemorySessionStore())), repo
}

func TestAccountsRegisterSignInAndSignOut(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	account, err := accounts.Create(ctx, "acc-1", "Ada@Example.com", "password123", "ada")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if account.ID != "acc-1" || account.Email != "ada@example.com" {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := accounts.Create(ctx, "acc-2", "ada@example.com", "password123", "ada"); !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := accounts.CreateEmailSession(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := accounts.CreateEmailSession(ctx, "nobody@example.com", "password123"); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	session, err := accounts.CreateEmailSession(ctx, "ADA@example.com", "password123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.Secret == "" || session.UserID != "acc-1" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if _, err := accounts.Get(ctx); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without session, got %v", err)
	}

	authed := backend.WithSession(ctx, session.Secret)
	current, err := accounts.Get(authed)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.ID != "acc-1" {
		t.Fatalf("unexpected current account: %+v", current)
	}

	if err := accounts.DeleteSession(authed, "someone-else"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found for foreign session, got %v", err)
	}
	if err := accounts.DeleteSession(authed, backend.CurrentSession); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := accounts.Get(authed); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected revoked session to be rejected, got %v", err)
	}
}

func TestAccountsCreateValidation(t *testing.T) {
	accounts, repo := newTestAccounts(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"bad email", "not-an-email", "password123", "invalid email"},
		{"short password", "ada@example.com", "short", "at least 8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.Create(context.Background(), "", tt.email, tt.password, "ada")
			if !errors.Is(err, backend.ErrInvalidInput) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected invalid input mentioning %q, got %v", tt.want, err)
			}
		})
	}
	if len(repo.byID) != 0 {
		t.Fatal("expected nothing to be stored")
	}
}

func TestAccountsCreateGeneratesID(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	account, err := accounts.Create(context.Background(), "", "ada@example.com", "password123", "ada")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(account.ID) != 32 {
		t.Fatalf("expected generated id, got %q", account.ID)
	}
}

func TestDocumentsCreateAndListWithRelations(t *testing.T) {
	repo := &memoryDocuments{}
	docs := NewDocuments(repo, map[string][]Relation{
		"videos": {{Attribute: "users", CollectionID: "users"}},
	})
	ctx := context.Background()

	raw, err := docs.CreateDocument(ctx, "db", "users", "u1", map[string]string{"accountId": "acc-1", "username": "ada"})
	if err != nil {
		t.Fatalf("create user doc: %v", err)
	}
	user, err := backend.DecodeDocument[models.User](raw)
	if err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.ID != "u1" || user.Username != "ada" || user.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := docs.CreateDocument(ctx, "db", "users", "u1", map[string]string{"username": "dup"}); !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	for i, owner := range []string{"u1", "u1", "ghost"} {
		if _, err := docs.CreateDocument(ctx, "db", "videos", fmt.Sprintf("v%d", i), map[string]string{"title": "clip", "users": owner}); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	list, err := docs.ListDocuments(ctx, "db", "videos")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	videos, err := backend.DecodeDocuments[models.Video](list)
	if err != nil {
		t.Fatalf("decode videos: %v", err)
	}
	if list.Total != 3 || len(videos) != 3 {
		t.Fatalf("expected three videos, got %d", len(videos))
	}
	if videos[0].Creator.User == nil || videos[0].Creator.User.Username != "ada" {
		t.Fatalf("expected expanded creator, got %+v", videos[0].Creator)
	}
	if videos[2].Creator.User != nil || videos[2].Creator.ID != "ghost" {
		t.Fatalf("expected dangling relation to stay an id, got %+v", videos[2].Creator)
	}

	expansion := repo.queries[len(repo.queries)-1]
	if len(expansion) != 1 || expansion[0].Attribute != backend.AttrID || len(expansion[0].Values) != 2 {
		t.Fatalf("expected one deduplicated id lookup, got %v", expansion)
	}
}

func TestDocumentsRejectsInvalidData(t *testing.T) {
	docs := NewDocuments(&memoryDocuments{}, nil)

	if _, err := docs.CreateDocument(context.Background(), "db", "users", "", []string{"not", "an", "object"}); !errors.Is(err, backend.ErrInvalidInput) {
		t.Fatalf("expected invalid input for array, got %v", err)
	}
	if _, err := docs.CreateDocument(context.Background(), "db", "users", "", map[string]string{"$id": "spoofed"}); !errors.Is(err, backend.ErrInvalidInput) {
		t.Fatalf("expected invalid input for reserved key, got %v", err)
	}
	if _, err := docs.ListDocuments(context.Background(), "db", "users", backend.Query{Method: "unsupported"}); !errors.Is(err, backend.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unsupported query, got %v", err)
	}
}

func TestStorageCreateFileAndURLs(t *testing.T) {
	objects := &memoryObjects{}
	files := &memoryFiles{}
	store := NewStorage(objects, files)

	stored, err := store.CreateFile(context.Background(), "bucket", "file-1", models.FileAsset{
		Name:     "thumb.png",
		MimeType: "image/png",
		Size:     9,
		Reader:   bytes.NewReader([]byte("png-bytes")),
	})
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if stored.ID != "file-1" || stored.MimeType != "image/png" {
		t.Fatalf("unexpected stored file: %+v", stored)
	}
	if string(objects.objects["bucket/file-1"]) != "png-bytes" || objects.types["bucket/file-1"] != "image/png" {
		t.Fatalf("unexpected object: %q %q", objects.objects["bucket/file-1"], objects.types["bucket/file-1"])
	}
	if !files.has("bucket", "file-1") {
		t.Fatal("expected metadata to be recorded")
	}

	view, err := store.FileView("bucket", "file-1")
	if err != nil || view != "https://cdn.test/bucket/file-1" {
		t.Fatalf("unexpected view %q err %v", view, err)
	}
	preview, err := store.FilePreview("bucket", "file-1", backend.PreviewOptions{Width: 2000, Height: 2000, Gravity: "top", Quality: 100})
	if err != nil || preview != "https://cdn.test/bucket/file-1?gravity=top&height=2000&quality=100&width=2000" {
		t.Fatalf("unexpected preview %q err %v", preview, err)
	}
	if _, err := store.FileView("bucket", ""); err == nil {
		t.Fatal("expected empty file id to fail")
	}
}

func TestStorageCreateFileFailures(t *testing.T) {
	objects := &memoryObjects{}
	store := NewStorage(objects, &memoryFiles{})

	if _, err := store.CreateFile(context.Background(), "bucket", "f", models.FileAsset{Name: "empty"}); !errors.Is(err, backend.ErrInvalidInput) {
		t.Fatalf("expected invalid input without content, got %v", err)
	}

	objects.putErr = errors.New("bucket unavailable")
	_, err := store.CreateFile(context.Background(), "bucket", "f", models.FileAsset{Name: "a", Reader: strings.NewReader("a")})
	if err == nil || !strings.Contains(err.Error(), "bucket unavailable") {
		t.Fatalf("expected object store error, got %v", err)
	}
}

func TestAvatarsInitials(t *testing.T) {
	avatars, err := NewAvatars("https://ui-avatars.com/api/")
	if err != nil {
		t.Fatalf("new avatars: %v", err)
	}
	got, err := avatars.Initials("Ada Lovelace")
	if err != nil {
		t.Fatalf("initials: %v", err)
	}
	if got != "https://ui-avatars.com/api/?name=Ada+Lovelace" {
		t.Fatalf("unexpected url %q", got)
	}
	blank, err := avatars.Initials("")
	if err != nil {
		t.Fatalf("blank initials: %v", err)
	}
	if blank != "https://ui-avatars.com/api/?name=" {
		t.Fatalf("unexpected blank url %q", blank)
	}
	if _, err := NewAvatars("not a url"); err == nil {
		t.Fatal("expected invalid base url to fail")
	}
}
