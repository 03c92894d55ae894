package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/gateway"
	"github.com/aora/backend/internal/logging"
)

var validate = newValidator()

// newValidator reports fields by their wire names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	respondJSON(ctx, w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps a gateway failure onto an HTTP status. Anything the backend
// did not classify is reported as a bad gateway.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gateway.ErrInvalidFileType), errors.Is(err, backend.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrUserNotFound), errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// validationMessage lists the fields that failed presence checks.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldName(fe))
	}
	return strings.Join(fields, ", ") + " required"
}

func fieldName(fe validator.FieldError) string {
	if name := fe.Field(); name != "" {
		return name
	}
	return strings.ToLower(fe.StructField())
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}
