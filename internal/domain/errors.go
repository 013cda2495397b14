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

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
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

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeIndexUnavailable = "INDEX_UNAVAILABLE"
	ErrCodeInsufficientData = "INSUFFICIENT_DATA"
	ErrCodeGeneration       = "GENERATION_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Indexing errors. A malformed profile fails indexing for that community
// only; an unavailable index fails the whole operation and is retryable.
var (
	ErrMalformedProfile = NewDomainError(ErrCodeValidation, "malformed community profile")
	ErrIndexUnavailable = NewDomainError(ErrCodeIndexUnavailable, "vector index unreachable")
)

// Query errors. Insufficient data is a first-class terminal status, not a
// hard failure; generation errors are retryable up to a bounded count.
var (
	ErrInsufficientData = NewDomainError(ErrCodeInsufficientData, "no supporting data found")
	ErrGenerationFailed = NewDomainError(ErrCodeGeneration, "answer generation failed")
	ErrEmptyQuestion    = NewDomainError(ErrCodeValidation, "question cannot be empty")
)

// Not found errors
var (
	ErrCommunityNotFound = NewDomainError(ErrCodeNotFound, "community not found")
	ErrProfileNotFound   = NewDomainError(ErrCodeNotFound, "profile document not found")
)

// NewMalformedProfileError wraps a validation failure for one community's
// profile document.
func NewMalformedProfileError(community string, cause error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeValidation,
		fmt.Sprintf("malformed profile for community %q", community), cause)
}
