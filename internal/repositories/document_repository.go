package repositories

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/db"
)

// maxListLimit bounds a single page, matching the hosted service.
const maxListLimit = 5000

var attributePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// systemColumns maps system attributes onto their table columns.
var systemColumns = map[string]string{
	backend.AttrID:        "id",
	backend.AttrCreatedAt: "created_at",
	backend.AttrUpdatedAt: "updated_at",
}

// DocumentRecord is a row of the documents table.
type DocumentRecord struct {
	ID           string
	DatabaseID   string
	CollectionID string
	Data         json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentRepository stores schema-flexible JSON documents.
type DocumentRepository interface {
	Insert(ctx context.Context, doc DocumentRecord) error
	List(ctx context.Context, databaseID, collectionID string, queries []backend.Query) ([]DocumentRecord, error)
}

// PostgresDocumentRepository keeps documents in a JSONB column.
type PostgresDocumentRepository struct {
	pool db.Pool
}

// NewPostgresDocumentRepository constructs a document repository backed by PostgreSQL.
func NewPostgresDocumentRepository(pool db.Pool) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{pool: pool}
}

// Insert persists a new document.
func (r *PostgresDocumentRepository) Insert(ctx context.Context, doc DocumentRecord) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO documents (database_id, collection_id, id, data, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, doc.DatabaseID, doc.CollectionID, doc.ID, string(doc.Data), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

// List returns the documents of a collection matching queries.
func (r *PostgresDocumentRepository) List(ctx context.Context, databaseID, collectionID string, queries []backend.Query) ([]DocumentRecord, error) {
	stmt, args, err := buildListStatement(databaseID, collectionID, queries)
	if err != nil {
		return nil, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var (
			doc  DocumentRecord
			data []byte
		)
		if err := rows.Scan(&doc.ID, &doc.DatabaseID, &doc.CollectionID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Data = json.RawMessage(data)
		doc.CreatedAt = doc.CreatedAt.UTC()
		doc.UpdatedAt = doc.UpdatedAt.UTC()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// buildListStatement translates list queries into a parameterised SELECT.
func buildListStatement(databaseID, collectionID string, queries []backend.Query) (string, []any, error) {
	args := []any{databaseID, collectionID}
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var (
		where   []string
		orderBy []string
		limit   = -1
	)
	for _, q := range queries {
		if q.Method != backend.MethodLimit {
			if err := validateAttribute(q.Attribute); err != nil {
				return "", nil, err
			}
		}

		switch q.Method {
		case backend.MethodEqual:
			if len(q.Values) == 0 {
				return "", nil, fmt.Errorf("%w: equal on %s without values", ErrUnsupportedQuery, q.Attribute)
			}
			values := make([]string, 0, len(q.Values))
			for _, v := range q.Values {
				values = append(values, fmt.Sprint(v))
			}
			column, system := systemColumns[q.Attribute]
			switch {
			case q.Attribute == backend.AttrID:
				where = append(where, fmt.Sprintf("%s = ANY(%s)", column, bind(values)))
			case system:
				return "", nil, fmt.Errorf("%w: equal on %s", ErrUnsupportedQuery, q.Attribute)
			default:
				where = append(where, fmt.Sprintf("data->>(%s::text) = ANY(%s)", bind(q.Attribute), bind(values)))
			}
		case backend.MethodSearch:
			term := ""
			if len(q.Values) > 0 {
				term = fmt.Sprint(q.Values[0])
			}
			where = append(where, fmt.Sprintf("data->>(%s::text) ILIKE %s", bind(q.Attribute), bind("%"+escapeLike(term)+"%")))
		case backend.MethodOrderDesc, backend.MethodOrderAsc:
			direction := "ASC"
			if q.Method == backend.MethodOrderDesc {
				direction = "DESC"
			}
			if column, ok := systemColumns[q.Attribute]; ok {
				orderBy = append(orderBy, column+" "+direction)
			} else {
				orderBy = append(orderBy, fmt.Sprintf("data->>(%s::text) %s", bind(q.Attribute), direction))
			}
		case backend.MethodLimit:
			n, ok := q.LimitValue()
			if !ok || n < 0 {
				return "", nil, fmt.Errorf("%w: invalid limit", ErrUnsupportedQuery)
			}
			limit = n
		default:
			return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedQuery, q.Method)
		}
	}

	var b strings.Builder
	b.WriteString(`SELECT id, database_id, collection_id, data, created_at, updated_at
        FROM documents
        WHERE database_id = $1 AND collection_id = $2`)
	for _, clause := range where {
		b.WriteString(" AND ")
		b.WriteString(clause)
	}

	if len(orderBy) == 0 {
		orderBy = append(orderBy, "created_at ASC")
	}
	orderBy = append(orderBy, "id ASC")
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(orderBy, ", "))

	if limit < 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	b.WriteString(" LIMIT ")
	b.WriteString(bind(limit))

	return b.String(), args, nil
}

func validateAttribute(attribute string) error {
	if _, ok := systemColumns[attribute]; ok {
		return nil
	}
	if !attributePattern.MatchString(attribute) {
		return fmt.Errorf("%w: attribute %q", ErrUnsupportedQuery, attribute)
	}
	return nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
