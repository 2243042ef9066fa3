package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewInvalidCardNumber flags a number failing Luhn or the structural pattern.
func NewInvalidCardNumber() error {
	return NewDomainError("INVALID_CARD_NUMBER", "invalid card number", http.StatusBadRequest, nil)
}

// NewInvalidExpiry flags a malformed or already-expired expiry date.
func NewInvalidExpiry(message string) error {
	return NewDomainError("INVALID_EXPIRY", message, http.StatusBadRequest, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewDenied is the access engine veto, distinct from NOT_FOUND.
func NewDenied(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewDecryptionFailed wraps an authenticated-decryption tag mismatch. Treated
// as a security event by callers; no detail beyond the code leaves the server.
func NewDecryptionFailed(err error) error {
	return &DomainError{
		Code:       "DECRYPTION_FAILED",
		Message:    "stored card data failed authentication",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewTooManyRequests() error {
	return NewDomainError("TOO_MANY_REQUESTS", "rate limit exceeded", http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
