package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is(err, shared.ErrDataUnavailable) match errors created with Wrap.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of the error carrying cause
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, cause: cause}
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, cause: e.cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeDataUnavailable    = "DATA_UNAVAILABLE"
	CodeMissingColumn      = "MISSING_COLUMN"
	CodeUndefinedAggregate = "UNDEFINED_AGGREGATE"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
)

// Common domain errors
var (
	// ErrDataUnavailable is returned when the dataset source cannot be fetched or parsed
	ErrDataUnavailable = NewDomainError(CodeDataUnavailable, "Dataset is unavailable")
	// ErrMissingColumn is returned when the dataset does not carry a required column
	ErrMissingColumn = NewDomainError(CodeMissingColumn, "Dataset is missing required columns")
	// ErrUndefinedAggregate marks an aggregate that has no value for the given input
	ErrUndefinedAggregate = NewDomainError(CodeUndefinedAggregate, "Aggregate is undefined for the given input")
	ErrInvalidInput       = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
)
