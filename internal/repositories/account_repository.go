package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aora/backend/internal/db"
	"github.com/aora/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account models.AccountRecord) error
	FindByEmail(ctx context.Context, email string) (models.AccountRecord, error)
	FindByID(ctx context.Context, id string) (models.AccountRecord, error)
}

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create persists a new account. Emails are unique regardless of case.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.AccountRecord) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, email, name, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, account.ID, strings.ToLower(account.Email), account.Name, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByEmail fetches an account by its email address.
func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (models.AccountRecord, error) {
	return r.findOne(ctx, "email", strings.ToLower(email))
}

// FindByID fetches an account by its identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.AccountRecord, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, column, value string) (models.AccountRecord, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.AccountRecord{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, name, password_hash, created_at, updated_at
        FROM accounts
        WHERE `+column+` = $1
    `, value)

	var account models.AccountRecord
	if err := row.Scan(&account.ID, &account.Email, &account.Name, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AccountRecord{}, ErrNotFound
		}
		return models.AccountRecord{}, fmt.Errorf("select account by %s: %w", column, err)
	}

	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return account, nil
}
