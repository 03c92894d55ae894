package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/aora/backend/internal/logging"
)

var (
	// ErrInvalidFileType indicates an asset kind without a URL resolver.
	ErrInvalidFileType = errors.New("Invalid file type")
	// ErrAccountNotCreated indicates the backend accepted the registration but returned no account.
	ErrAccountNotCreated = errors.New("account was not created")
	// ErrUserNotFound indicates the signed-in account has no linked user document.
	ErrUserNotFound = errors.New("user document not found")
	// ErrEmptyURL indicates the backend produced no URL for a stored file.
	ErrEmptyURL = errors.New("empty file url")
)

// Error is the single error kind returned by gateway operations. It keeps the
// original failure reachable through errors.Is and errors.As.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// fail wraps err for the caller, logging it the first time it crosses a
// gateway boundary.
func fail(ctx context.Context, op string, err error) error {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		logging.FromContext(ctx).Error("gateway operation failed", "op", op, "error", err)
	}
	return &Error{Op: op, Err: err}
}
