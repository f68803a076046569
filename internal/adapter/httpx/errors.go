package httpx

import "fmt"

// ErrorType represents the category of error returned by an external API.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeNotFound
	ErrTypeInvalidRequest
	ErrTypeServiceUnavailable
	ErrTypeTimeout
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error represents an HTTP client error with additional context.
// Service identifies the upstream API ("github", "openai").
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Service    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Service, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// MapStatusCode converts an HTTP status code into a typed error.
func MapStatusCode(service string, statusCode int, message string) *Error {
	switch {
	case statusCode == 401 || statusCode == 403:
		return &Error{Type: ErrTypeAuthentication, Message: message, StatusCode: statusCode, Retryable: false, Service: service}
	case statusCode == 404:
		return &Error{Type: ErrTypeNotFound, Message: message, StatusCode: statusCode, Retryable: false, Service: service}
	case statusCode == 429:
		return &Error{Type: ErrTypeRateLimit, Message: message, StatusCode: statusCode, Retryable: true, Service: service}
	case statusCode >= 400 && statusCode < 500:
		return &Error{Type: ErrTypeInvalidRequest, Message: message, StatusCode: statusCode, Retryable: false, Service: service}
	case statusCode >= 500:
		return &Error{Type: ErrTypeServiceUnavailable, Message: message, StatusCode: statusCode, Retryable: true, Service: service}
	default:
		return &Error{Type: ErrTypeUnknown, Message: message, StatusCode: statusCode, Retryable: false, Service: service}
	}
}

// NewTimeoutError creates a timeout error. Timeouts carry no status code.
func NewTimeoutError(service, message string) *Error {
	return &Error{
		Type:      ErrTypeTimeout,
		Message:   message,
		Retryable: true,
		Service:   service,
	}
}
