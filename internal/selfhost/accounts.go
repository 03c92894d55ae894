// Package selfhost implements the backend contract on PostgreSQL, a session
// store and an S3-compatible object store.
package selfhost

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/models"
	"github.com/aora/backend/internal/repositories"
)

const minPasswordLength = 8

var validate = validator.New(validator.WithRequiredStructEnabled())

type registration struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=256"`
	Name     string `validate:"max=128"`
}

// Accounts stores accounts in PostgreSQL and issues sessions through auth.Manager.
type Accounts struct {
	accounts repositories.AccountRepository
	sessions *auth.Manager
	now      func() time.Time
}

// NewAccounts constructs the account resource.
func NewAccounts(accounts repositories.AccountRepository, sessions *auth.Manager) *Accounts {
	return &Accounts{
		accounts: accounts,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new account with a bcrypt-hashed password.
func (a *Accounts) Create(ctx context.Context, accountID, email, password, name string) (models.Account, error) {
	email = strings.TrimSpace(email)
	if err := validate.Struct(registration{Email: email, Password: password, Name: name}); err != nil {
		return models.Account{}, fmt.Errorf("create account: %w: %s", backend.ErrInvalidInput, describeValidation(err))
	}
	if accountID == "" {
		accountID = backend.UniqueID()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := a.now()
	record := models.AccountRecord{
		Account: models.Account{
			ID:        accountID,
			Name:      name,
			Email:     strings.ToLower(email),
			CreatedAt: now,
		},
		PasswordHash: string(hash),
		UpdatedAt:    now,
	}
	if err := a.accounts.Create(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Account{}, fmt.Errorf("create account: %w: a user with the same id or email already exists", backend.ErrConflict)
		}
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}

	return record.Account, nil
}

// CreateEmailSession verifies the credentials and issues a new session.
func (a *Accounts) CreateEmailSession(ctx context.Context, email, password string) (models.Session, error) {
	record, err := a.accounts.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Session{}, invalidCredentials()
		}
		return models.Session{}, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return models.Session{}, invalidCredentials()
	}

	session, err := a.sessions.Issue(ctx, record.ID)
	if err != nil {
		return models.Session{}, fmt.Errorf("issue session: %w", err)
	}
	return session, nil
}

func invalidCredentials() error {
	return fmt.Errorf("create session: %w: invalid credentials", backend.ErrUnauthorized)
}

// Get returns the account owning the session carried by ctx.
func (a *Accounts) Get(ctx context.Context) (models.Account, error) {
	session, err := a.currentSession(ctx)
	if err != nil {
		return models.Account{}, err
	}

	record, err := a.accounts.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Account{}, fmt.Errorf("get account: %w", backend.ErrUnauthorized)
		}
		return models.Account{}, fmt.Errorf("get account: %w", err)
	}
	return record.Account, nil
}

// DeleteSession revokes the caller's session. Only the caller's own session
// can be addressed, either as backend.CurrentSession or by its id.
func (a *Accounts) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := a.currentSession(ctx)
	if err != nil {
		return err
	}
	if sessionID != "" && sessionID != backend.CurrentSession && sessionID != session.ID {
		return fmt.Errorf("delete session %s: %w", sessionID, backend.ErrNotFound)
	}

	if err := a.sessions.Revoke(ctx, session.Token); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return fmt.Errorf("delete session: %w", backend.ErrUnauthorized)
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (a *Accounts) currentSession(ctx context.Context) (auth.Session, error) {
	secret := backend.SessionFromContext(ctx)
	if secret == "" {
		return auth.Session{}, backend.ErrUnauthorized
	}
	session, err := a.sessions.Resolve(ctx, secret)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired) {
			return auth.Session{}, fmt.Errorf("%w: %s", backend.ErrUnauthorized, err.Error())
		}
		return auth.Session{}, fmt.Errorf("resolve session: %w", err)
	}
	return session, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Password":
			fields = append(fields, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		default:
			fields = append(fields, fmt.Sprintf("invalid %s", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(fields, ", ")
}

var _ backend.Accounts = (*Accounts)(nil)
