package dto

import (
	"net/http"

	"github.com/ecomdash/backend/internal/domain/shared"
)

// Error codes returned in the response envelope. Domain codes are passed through unchanged.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"

	ErrCodeDataUnavailable    = shared.CodeDataUnavailable
	ErrCodeMissingColumn      = shared.CodeMissingColumn
	ErrCodeUndefinedAggregate = shared.CodeUndefinedAggregate
	ErrCodeInvalidInput       = shared.CodeInvalidInput
	ErrCodeNotFound           = shared.CodeNotFound
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	// The dataset source is down or does not match the expected schema -> 503
	ErrCodeDataUnavailable: http.StatusServiceUnavailable,
	ErrCodeMissingColumn:   http.StatusServiceUnavailable,

	// Undefined aggregates are rendered as placeholders; reaching a handler is a bug
	ErrCodeUndefinedAggregate: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
