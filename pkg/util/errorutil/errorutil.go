package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/domain"
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

func NewInternalError(err error) error {
	return internalError(err)
}

func internalError(err error) *DomainError {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// mapping ties a domain sentinel to its HTTP status, code and client message.
type mapping struct {
	err     error
	status  int
	code    string
	message string
}

// Order matters: first errors.Is match wins.
var mappings = []mapping{
	{domain.ErrAuthHeaderAbsent, http.StatusUnauthorized, "AUTH_REQUIRED", "please sign in"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED", "session expired, please refresh or sign in again"},
	{domain.ErrTokenMalformed, http.StatusUnauthorized, "TOKEN_MALFORMED", "invalid session token, please sign in again"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "TOKEN_INVALID", "session token rejected, please sign in again"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password"},
	{domain.ErrRouteDenied, http.StatusForbidden, "ROUTE_DENIED", "you do not have access to this page"},
	{domain.ErrLoginThrottled, http.StatusTooManyRequests, "LOGIN_THROTTLED", "too many failed sign-in attempts, try again later"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "VALIDATION_FAILED", "invalid request"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
}

// FromSentinel converts a wrapped domain sentinel into a DomainError. The
// client message comes from the table so internals never leak.
func FromSentinel(err error) (*DomainError, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}, true
		}
	}
	return nil, false
}

// SentinelForCode maps a response code back to its domain sentinel so API
// clients can use errors.Is on server failures.
func SentinelForCode(code string) (error, bool) {
	for _, m := range mappings {
		if m.code == code {
			return m.err, true
		}
	}
	return nil, false
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
	if de, ok := FromSentinel(err); ok {
		return de
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return internalError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_FAILED"
	}
}
