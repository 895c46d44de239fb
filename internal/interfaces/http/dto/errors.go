package dto

import (
	"net/http"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Print error codes, one per printing.ErrorKind
const (
	ErrCodeNoDefaultPrinter    = "ERR_NO_DEFAULT_PRINTER"
	ErrCodeUnsuitablePrinter   = "ERR_UNSUITABLE_PRINTER"
	ErrCodeTempFileIO          = "ERR_TEMP_FILE_IO"
	ErrCodeEngineUnavailable   = "ERR_ENGINE_UNAVAILABLE"
	ErrCodeEngineTimeout       = "ERR_ENGINE_TIMEOUT"
	ErrCodeSpoolRejected       = "ERR_SPOOL_REJECTED"
	ErrCodeOSQueryFailed       = "ERR_OS_QUERY_FAILED"
	ErrCodePlatformUnsupported = "ERR_PLATFORM_UNSUPPORTED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Print errors
	ErrCodeNoDefaultPrinter:    http.StatusConflict,
	ErrCodeUnsuitablePrinter:   http.StatusUnprocessableEntity,
	ErrCodeTempFileIO:          http.StatusInternalServerError,
	ErrCodeEngineUnavailable:   http.StatusServiceUnavailable,
	ErrCodeEngineTimeout:       http.StatusGatewayTimeout,
	ErrCodeSpoolRejected:       http.StatusBadGateway,
	ErrCodeOSQueryFailed:       http.StatusBadGateway,
	ErrCodePlatformUnsupported: http.StatusNotImplemented,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// PrintErrorCode returns the API error code for a print failure kind
func PrintErrorCode(kind printing.ErrorKind) string {
	if !kind.IsValid() {
		return ErrCodeUnknown
	}
	return "ERR_" + kind.String()
}

// LegacyErrorCodeMapping maps domain error codes to standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"CONFLICT":         ErrCodeConflict,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
