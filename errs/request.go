package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	Unauthorized = NewUnauthorizedError("login required")
)

// Authentication & Authorization Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
)

// Authentication & Authorization Error Constructors
func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
		Details:    "Unknown username or wrong password",
		Field:      "password",
	}
}

func NewInsufficientRoleError(requiredRole string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        ErrInsufficientRole,
		Details:    fmt.Sprintf("Insufficient role. Required: %s", requiredRole),
		Field:      "authorization",
	}
}

func NewRateLimitError(retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Too many attempts, retry in %s", retryAfter.Round(time.Second)),
	}
}
