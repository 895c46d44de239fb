package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRequired, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeNoDefaultPrinter, http.StatusConflict},
		{ErrCodeUnsuitablePrinter, http.StatusUnprocessableEntity},
		{ErrCodeTempFileIO, http.StatusInternalServerError},
		{ErrCodeEngineUnavailable, http.StatusServiceUnavailable},
		{ErrCodeEngineTimeout, http.StatusGatewayTimeout},
		{ErrCodeSpoolRejected, http.StatusBadGateway},
		{ErrCodeOSQueryFailed, http.StatusBadGateway},
		{ErrCodePlatformUnsupported, http.StatusNotImplemented},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestPrintErrorCode(t *testing.T) {
	tests := []struct {
		kind     printing.ErrorKind
		expected string
	}{
		{printing.KindNoDefaultPrinter, ErrCodeNoDefaultPrinter},
		{printing.KindUnsuitablePrinter, ErrCodeUnsuitablePrinter},
		{printing.KindTempFileIO, ErrCodeTempFileIO},
		{printing.KindEngineUnavailable, ErrCodeEngineUnavailable},
		{printing.KindEngineTimeout, ErrCodeEngineTimeout},
		{printing.KindSpoolRejected, ErrCodeSpoolRejected},
		{printing.KindOSQueryFailed, ErrCodeOSQueryFailed},
		{printing.KindPlatformUnsupported, ErrCodePlatformUnsupported},
		{printing.ErrorKind("PAPER_JAM"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			code := PrintErrorCode(tt.kind)
			assert.Equal(t, tt.expected, code)
			if tt.kind.IsValid() {
				_, mapped := ErrorCodeHTTPStatus[code]
				assert.True(t, mapped, "code %s has no HTTP status", code)
			}
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"INTERNAL_ERROR", ErrCodeInternal},
		// New codes should pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeSpoolRejected, ErrCodeSpoolRejected},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestLegacyMappingTargetsHaveStatus(t *testing.T) {
	for legacy, code := range LegacyErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "legacy code %s maps to %s which has no HTTP status", legacy, code)
	}
}

func TestErrorResponses_JSON(t *testing.T) {
	t.Run("error with request id", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID(ErrCodeNoDefaultPrinter, "no default printer configured", "req-1")

		body, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"success": false,
			"error": {"code": "ERR_NO_DEFAULT_PRINTER", "message": "no default printer configured", "request_id": "req-1"}
		}`, string(body))
	})

	t.Run("validation details", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
			{Field: "markup", Message: "This field is required"},
		})

		body, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"success": false,
			"error": {
				"code": "ERR_VALIDATION",
				"message": "Request validation failed",
				"details": [{"field": "markup", "message": "This field is required"}]
			}
		}`, string(body))
	})

	t.Run("success with total", func(t *testing.T) {
		resp := NewSuccessResponseWithTotal([]string{"TVS MSP 250"}, 1)

		body, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success": true, "data": ["TVS MSP 250"], "meta": {"total": 1}}`, string(body))
	})
}
