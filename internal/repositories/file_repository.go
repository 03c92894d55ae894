package repositories

import (
	"context"
	"fmt"

	"github.com/aora/backend/internal/db"
	"github.com/aora/backend/internal/models"
)

// FileRepository records metadata for objects written to the object store.
type FileRepository interface {
	Create(ctx context.Context, file models.StoredFile) error
}

// PostgresFileRepository provides PostgreSQL-backed persistence for file metadata.
type PostgresFileRepository struct {
	pool db.Pool
}

// NewPostgresFileRepository constructs a file repository backed by PostgreSQL.
func NewPostgresFileRepository(pool db.Pool) *PostgresFileRepository {
	return &PostgresFileRepository{pool: pool}
}

// Create persists file metadata.
func (r *PostgresFileRepository) Create(ctx context.Context, file models.StoredFile) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO files (bucket_id, id, name, mime_type, size, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, file.BucketID, file.ID, file.Name, file.MimeType, file.Size, file.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert file: %w", err)
	}

	return nil
}
