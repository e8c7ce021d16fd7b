package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Kinds of failure a crawl cycle can run into. Every *Error unwraps to one of
// these so callers can branch with errors.Is.
var (
	ErrFeedNotFound       = errors.New("feed not found")
	ErrFeedUnavailable    = errors.New("feed unavailable")
	ErrFetchFailed        = errors.New("fetch failed")
	ErrWriteFailed        = errors.New("write failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error represents a typed failure with optional HTTP status information
type Error struct {
	Kind    error
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// New creates a typed error of the given kind
func New(kind error, errType ErrorType, message string) *Error {
	return &Error{Kind: kind, Type: errType, Message: message}
}

// Wrap creates a typed error of the given kind around a cause
func Wrap(kind error, errType ErrorType, message string, err error) *Error {
	return &Error{Kind: kind, Type: errType, Message: message, Err: err}
}

// FetchFailed builds a fetch error for a URL, typed by its HTTP status code
func FetchFailed(url string, code int, err error) *Error {
	return &Error{
		Kind:    ErrFetchFailed,
		Type:    TypeForStatusCode(code),
		Message: fmt.Sprintf("GET %s", url),
		Code:    code,
		Err:     err,
	}
}

// WriteFailed builds a write error for a file path
func WriteFailed(path string, err error) *Error {
	return Wrap(ErrWriteFailed, ErrorTypeIO, fmt.Sprintf("write %s", path), err)
}

// StorageUnavailable builds a cache store error for a path
func StorageUnavailable(path string, err error) *Error {
	return Wrap(ErrStorageUnavailable, ErrorTypeIO, fmt.Sprintf("store %s", path), err)
}

// TypeForStatusCode maps an HTTP status code to an error type
func TypeForStatusCode(code int) ErrorType {
	switch {
	case code == 0:
		return ErrorTypeNetwork
	case code == 429:
		return ErrorTypeRateLimit
	case code == 401 || code == 403:
		return ErrorTypeAuth
	case code == 404 || code == 410:
		return ErrorTypeNotFound
	case code >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeIO:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
