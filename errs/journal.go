package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Journal Errors
var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidURL   = errors.New("invalid URL")
	ErrFileTooLarge = errors.New("file too large")
	ErrStorage      = errors.New("storage operation failed")
	ErrWrite        = errors.New("write failed")
)

// Journal Error Constructors
func NewValidationError(field, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrValidation,
		Details:    reason,
		Field:      field,
	}
}

func NewInvalidURLError(raw string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidURL,
		Details:    fmt.Sprintf("%q is not a valid URL", raw),
		Field:      "url",
	}
}

func NewFileTooLargeError(size, maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrFileTooLarge,
		Details:    fmt.Sprintf("File is %d bytes, the limit is %d bytes", size, maxSize),
		Field:      "file",
	}
}

func NewStorageError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrStorage,
		Details:    fmt.Sprintf("Storage %s failed", operation),
		Cause:      cause,
		Field:      "storage",
	}
}

func NewWriteError(operation, entity string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrWrite,
		Details:    fmt.Sprintf("Failed to %s %s", operation, entity),
		Cause:      cause,
	}
}

// Journal Error Type Checkers
func IsInvalidURLError(err error) bool {
	return errors.Is(err, ErrInvalidURL)
}

func IsFileTooLargeError(err error) bool {
	return errors.Is(err, ErrFileTooLarge)
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
