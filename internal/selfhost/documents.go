package selfhost

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/repositories"
)

// Relation expands a document attribute holding an id of another collection.
type Relation struct {
	Attribute    string
	CollectionID string
}

// Documents stores documents as JSONB rows.
type Documents struct {
	repo      repositories.DocumentRepository
	relations map[string][]Relation
	now       func() time.Time
}

// NewDocuments constructs the document resource. relations is keyed by
// collection id; related documents are expanded in place when listing.
func NewDocuments(repo repositories.DocumentRepository, relations map[string][]Relation) *Documents {
	return &Documents{
		repo:      repo,
		relations: relations,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateDocument stores data under documentID and returns the stored document.
func (d *Documents) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (json.RawMessage, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("create document: %w: data must be a JSON object", backend.ErrInvalidInput)
	}
	for key := range fields {
		if strings.HasPrefix(key, "$") {
			return nil, fmt.Errorf("create document: %w: reserved attribute %q", backend.ErrInvalidInput, key)
		}
	}
	if documentID == "" {
		documentID = backend.UniqueID()
	}

	now := d.now()
	record := repositories.DocumentRecord{
		ID:           documentID,
		DatabaseID:   databaseID,
		CollectionID: collectionID,
		Data:         encoded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.repo.Insert(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("create document: %w: document %s already exists", backend.ErrConflict, documentID)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	return json.Marshal(withSystemAttributes(fields, record))
}

// ListDocuments returns the documents of a collection matching queries.
func (d *Documents) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...backend.Query) (backend.DocumentList, error) {
	docs, err := d.list(ctx, databaseID, collectionID, queries)
	if err != nil {
		return backend.DocumentList{}, err
	}

	if err := d.expand(ctx, databaseID, collectionID, docs); err != nil {
		return backend.DocumentList{}, err
	}

	out := backend.DocumentList{Total: len(docs), Documents: make([]json.RawMessage, 0, len(docs))}
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return backend.DocumentList{}, fmt.Errorf("encode document: %w", err)
		}
		out.Documents = append(out.Documents, raw)
	}
	return out, nil
}

func (d *Documents) list(ctx context.Context, databaseID, collectionID string, queries []backend.Query) ([]map[string]any, error) {
	records, err := d.repo.List(ctx, databaseID, collectionID, queries)
	if err != nil {
		if errors.Is(err, repositories.ErrUnsupportedQuery) {
			return nil, fmt.Errorf("list documents: %w: %s", backend.ErrInvalidInput, err.Error())
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]map[string]any, 0, len(records))
	for _, record := range records {
		var fields map[string]any
		if err := json.Unmarshal(record.Data, &fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", record.ID, err)
		}
		if fields == nil {
			fields = make(map[string]any)
		}
		docs = append(docs, withSystemAttributes(fields, record))
	}
	return docs, nil
}

// expand replaces relation ids with the related documents, one query per relation.
func (d *Documents) expand(ctx context.Context, databaseID, collectionID string, docs []map[string]any) error {
	for _, rel := range d.relations[collectionID] {
		seen := make(map[string]struct{})
		var ids []any
		for _, doc := range docs {
			id, ok := doc[rel.Attribute].(string)
			if !ok || id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}

		related, err := d.list(ctx, databaseID, rel.CollectionID, []backend.Query{backend.Equal(backend.AttrID, ids...)})
		if err != nil {
			return fmt.Errorf("expand %s: %w", rel.Attribute, err)
		}
		byID := make(map[string]map[string]any, len(related))
		for _, doc := range related {
			if id, ok := doc[backend.AttrID].(string); ok {
				byID[id] = doc
			}
		}
		for _, doc := range docs {
			if id, ok := doc[rel.Attribute].(string); ok {
				if target, found := byID[id]; found {
					doc[rel.Attribute] = target
				}
			}
		}
	}
	return nil
}

func withSystemAttributes(fields map[string]any, record repositories.DocumentRecord) map[string]any {
	fields[backend.AttrID] = record.ID
	fields["$collectionId"] = record.CollectionID
	fields["$databaseId"] = record.DatabaseID
	fields[backend.AttrCreatedAt] = record.CreatedAt.Format(time.RFC3339Nano)
	fields[backend.AttrUpdatedAt] = record.UpdatedAt.Format(time.RFC3339Nano)
	return fields
}

var _ backend.Documents = (*Documents)(nil)
