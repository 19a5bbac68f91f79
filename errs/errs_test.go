package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApiErr_ErrorIncludesDetails(t *testing.T) {
	err := NewFileTooLargeError(30, 20)
	assert.Equal(t, "file too large: File is 30 bytes, the limit is 20 bytes", err.Error())
	assert.Equal(t, http.StatusRequestEntityTooLarge, err.StatusCode)
	assert.Equal(t, "file", err.Field)
}

func TestApiErr_FullErrorFollowsCauses(t *testing.T) {
	inner := NewStorageError("upload", errors.New("connection reset"))
	outer := NewWriteError("add", "file block", inner)

	assert.Equal(t,
		"write failed: Failed to add file block -> storage operation failed: Storage upload failed -> connection reset",
		outer.GetFullError())
}

func TestConstructorsMatchCheckers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"invalid url", NewInvalidURLError("not a url"), IsInvalidURLError, http.StatusBadRequest},
		{"file too large", NewFileTooLargeError(2, 1), IsFileTooLargeError, http.StatusRequestEntityTooLarge},
		{"media type", NewUnsupportedMediaTypeError("text/plain", []string{"image/png"}), IsUnsupportedMediaTypeError, http.StatusUnsupportedMediaType},
		{"storage", NewStorageError("remove", nil), IsStorageError, http.StatusBadGateway},
		{"transaction", NewTransactionFailedError("delete entry", nil), IsTransactionFailedError, http.StatusInternalServerError},
		{"config", NewConfigError("PORT", nil), IsConfigError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))

			var apiErr *ApiErr
			assert.True(t, errors.As(tt.err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestUnauthorized_MatchesSentinel(t *testing.T) {
	assert.ErrorIs(t, Unauthorized, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized.StatusCode)
	assert.Equal(t, "login required: unauthorized", Unauthorized.Error())
}

func TestNotFound_NamesEntity(t *testing.T) {
	err := NewNotFound("block")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "block not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestNewDatabaseError_ClassifiesCause(t *testing.T) {
	notFound := NewDatabaseError("find", "entry", errors.New("record not found"))
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
	assert.ErrorIs(t, notFound, ErrNotFound)

	fk := NewDatabaseError("add", "block", errors.New("FOREIGN KEY constraint failed"))
	assert.Equal(t, http.StatusBadRequest, fk.StatusCode)
	assert.ErrorIs(t, fk, ErrForeignKeyConstraint)

	generic := NewDatabaseError("list", "entries", errors.New("syntax error"))
	assert.Equal(t, http.StatusInternalServerError, generic.StatusCode)
	assert.ErrorIs(t, generic, ErrDatabaseQuery)
}
