package appwrite

import (
	"context"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/aora/backend/internal/backend"
)

// Databases wraps the document endpoints of a database.
type Databases struct {
	client *Client
}

// CreateDocument stores data as a new document with the given id.
func (d *Databases) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (json.RawMessage, error) {
	var doc json.RawMessage
	resp, err := d.client.request(ctx).
		SetPathParams(map[string]string{
			"databaseId":   databaseID,
			"collectionId": collectionID,
		}).
		SetBody(map[string]any{
			"documentId": documentID,
			"data":       data,
		}).
		SetResult(&doc).
		Post("/databases/{databaseId}/collections/{collectionId}/documents")
	if err := checkResponse("create document", resp, err); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns the documents matching queries.
func (d *Databases) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...backend.Query) (backend.DocumentList, error) {
	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", q.String())
	}

	var list backend.DocumentList
	resp, err := d.client.request(ctx).
		SetPathParams(map[string]string{
			"databaseId":   databaseID,
			"collectionId": collectionID,
		}).
		SetQueryParamsFromValues(params).
		SetResult(&list).
		Get("/databases/{databaseId}/collections/{collectionId}/documents")
	if err := checkResponse("list documents", resp, err); err != nil {
		return backend.DocumentList{}, err
	}
	return list, nil
}

var _ backend.Documents = (*Databases)(nil)
