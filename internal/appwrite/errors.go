package appwrite

import (
	"net/http"

	"github.com/aora/backend/internal/backend"
)

// Error is the error body returned by the Appwrite API.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is maps response statuses onto the backend error kinds.
func (e *Error) Is(target error) bool {
	switch target {
	case backend.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case backend.ErrConflict:
		return e.Status == http.StatusConflict
	case backend.ErrNotFound:
		return e.Status == http.StatusNotFound
	case backend.ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	}
	return false
}
