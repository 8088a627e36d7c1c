package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same code and message, so a
// sentinel still matches after being re-created with a cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithCause returns a copy of a sentinel error carrying err as its cause.
func (e *DomainError) WithCause(err error) *DomainError {
	return NewDomainErrorWithCause(e.Code, e.Message, err)
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrInvalidRole          = NewDomainError(ErrCodeValidation, "invalid message role")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Configuration errors are fatal at startup.
var (
	ErrNoDocuments         = NewDomainError(ErrCodeConfiguration, "no eligible documents found")
	ErrStyleProfileMissing = NewDomainError(ErrCodeConfiguration, "style profile not found, run `stylechat profile` first")
	ErrUnknownProvider     = NewDomainError(ErrCodeConfiguration, "unknown provider")
	ErrProviderConfig      = NewDomainError(ErrCodeConfiguration, "provider is not configured")
	ErrUnknownVectorStore  = NewDomainError(ErrCodeConfiguration, "unknown vector store")
)

// External service errors
var (
	ErrEmbeddingFailed = NewDomainError(ErrCodeUnavailable, "embedding service call failed")
	ErrChatFailed      = NewDomainError(ErrCodeUnavailable, "chat service call failed")
	ErrStoreFailed     = NewDomainError(ErrCodeInternalError, "vector store operation failed")
)
