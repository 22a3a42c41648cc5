package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Generic error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// Daily challenge rejections
const (
	ErrCodeSessionNotFound        = "SESSION_NOT_FOUND"
	ErrCodeNotOwner               = "NOT_OWNER"
	ErrCodeSessionAlreadyComplete = "SESSION_ALREADY_COMPLETE"
	ErrCodeMaxAttemptsExceeded    = "MAX_ATTEMPTS_EXCEEDED"
	ErrCodeDuplicateGuess         = "DUPLICATE_GUESS"
	ErrCodeEntityNotFound         = "ENTITY_NOT_FOUND"
	ErrCodeChallengeNotFound      = "CHALLENGE_NOT_FOUND"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "DUPLICATE_GUESS")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request may succeed.
// Rejections never are; infrastructure failures may be.
func (e *AppError) Retryable() bool {
	return e.Code == ErrCodeInternal
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsDomain reports whether err is a rejection rather than an infrastructure failure.
func IsDomain(err error) bool {
	appErr, ok := As(err)
	return ok && !appErr.Retryable()
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates a new UNAUTHORIZED error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

func NewSessionNotFoundError(sessionID string) *AppError {
	return &AppError{
		Code:    ErrCodeSessionNotFound,
		Message: fmt.Sprintf("session not found: %s", sessionID),
		Status:  http.StatusNotFound,
	}
}

func NewNotOwnerError(sessionID string) *AppError {
	return &AppError{
		Code:    ErrCodeNotOwner,
		Message: fmt.Sprintf("session %s belongs to another player", sessionID),
		Status:  http.StatusForbidden,
	}
}

func NewSessionAlreadyCompleteError(sessionID string) *AppError {
	return &AppError{
		Code:    ErrCodeSessionAlreadyComplete,
		Message: fmt.Sprintf("session %s is already complete", sessionID),
		Status:  http.StatusConflict,
	}
}

func NewMaxAttemptsExceededError(maxAttempts int) *AppError {
	return &AppError{
		Code:    ErrCodeMaxAttemptsExceeded,
		Message: fmt.Sprintf("all %d attempts have been used", maxAttempts),
		Status:  http.StatusConflict,
	}
}

func NewDuplicateGuessError(entityID string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateGuess,
		Message: fmt.Sprintf("%s was already guessed", entityID),
		Status:  http.StatusConflict,
	}
}

func NewEntityNotFoundError(entityID string) *AppError {
	return &AppError{
		Code:    ErrCodeEntityNotFound,
		Message: fmt.Sprintf("unknown album: %s", entityID),
		Status:  http.StatusUnprocessableEntity,
	}
}

func NewChallengeNotFoundError(date string) *AppError {
	return &AppError{
		Code:    ErrCodeChallengeNotFound,
		Message: fmt.Sprintf("no challenge scheduled for %s", date),
		Status:  http.StatusNotFound,
	}
}
