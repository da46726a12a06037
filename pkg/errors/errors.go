// Package errors defines the sentinel errors shared across the engine and
// an AppError wrapper that maps them onto HTTP status codes at the API edge.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidConfig    = errors.New("invalid ranking configuration")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrUnknownRule      = errors.New("unknown ranking rule")
	ErrUnsortableField  = errors.New("field is not sortable")
	ErrIndexUnavailable = errors.New("index unavailable")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnknownRule), errors.Is(err, ErrUnsortableField):
		return http.StatusBadRequest
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIndexUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
