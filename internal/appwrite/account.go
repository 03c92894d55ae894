package appwrite

import (
	"context"
	"net/url"
	"strings"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/models"
)

// Account wraps the /account endpoints.
type Account struct {
	client *Client
}

// Create registers a new account under the supplied id.
func (a *Account) Create(ctx context.Context, accountID, email, password, name string) (models.Account, error) {
	var account models.Account
	resp, err := a.client.request(ctx).
		SetBody(map[string]string{
			"userId":   accountID,
			"email":    email,
			"password": password,
			"name":     name,
		}).
		SetResult(&account).
		Post("/account")
	if err := checkResponse("create account", resp, err); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// CreateEmailSession signs in with email and password. Client platforms do
// not receive the secret in the body, so it is recovered from the session
// cookie when missing.
func (a *Account) CreateEmailSession(ctx context.Context, email, password string) (models.Session, error) {
	var session models.Session
	resp, err := a.client.request(ctx).
		SetBody(map[string]string{
			"email":    email,
			"password": password,
		}).
		SetResult(&session).
		Post("/account/sessions/email")
	if err := checkResponse("create email session", resp, err); err != nil {
		return models.Session{}, err
	}

	if session.Secret == "" {
		name := a.client.sessionCookieName()
		for _, cookie := range resp.Cookies() {
			if strings.EqualFold(cookie.Name, name) {
				if value, err := url.QueryUnescape(cookie.Value); err == nil {
					session.Secret = value
				} else {
					session.Secret = cookie.Value
				}
				break
			}
		}
	}

	return session, nil
}

// Get returns the account owning the current session.
func (a *Account) Get(ctx context.Context) (models.Account, error) {
	var account models.Account
	resp, err := a.client.request(ctx).
		SetResult(&account).
		Get("/account")
	if err := checkResponse("get account", resp, err); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// DeleteSession invalidates a session; pass backend.CurrentSession for the caller's own.
func (a *Account) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = backend.CurrentSession
	}
	resp, err := a.client.request(ctx).
		SetPathParam("sessionId", sessionID).
		Delete("/account/sessions/{sessionId}")
	return checkResponse("delete session", resp, err)
}

var _ backend.Accounts = (*Account)(nil)
