package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the MODULE_NNN convention so that ModuleForCode can recover the
// owning module for metric labels.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodeMessagingError     ErrorCode = "COMMON_017"
	ErrCodeStorageError       ErrorCode = "COMMON_018"
	ErrCodeSearchError        ErrorCode = "COMMON_019"
	ErrCodeGraphError         ErrorCode = "COMMON_020"
)

// Aliases used by call sites that predate the COMMON_ numbering.
const (
	CodeUnknown        = ErrorCode("")
	CodeOK             = ErrorCode("OK")
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
)

// Patent record Error Codes
const (
	ErrCodePatentNumberMissing  ErrorCode = "PAT_001"
	ErrCodePatentNumberInvalid  ErrorCode = "PAT_002"
	ErrCodePatentDateInvalid    ErrorCode = "PAT_003"
	ErrCodePatentFamilyNotFound ErrorCode = "PAT_004"
)

// Consolidation Error Codes
const (
	ErrCodeConsolidationInvalidInput ErrorCode = "CONS_001"
	ErrCodeConsolidationRejected     ErrorCode = "CONS_002"
	ErrCodeConsolidationRunNotFound  ErrorCode = "CONS_003"
	ErrCodeConsolidationBudget       ErrorCode = "CONS_004"
	ErrCodeConsolidationOptions      ErrorCode = "CONS_005"
)

// Report Error Codes
const (
	ErrCodeReportFormatUnsupported ErrorCode = "RPT_001"
	ErrCodeReportRenderFailed      ErrorCode = "RPT_002"
)

// ErrorCodeHTTPStatus maps each code to the HTTP status used by the REST facade.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusServiceUnavailable,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeSearchError:        http.StatusInternalServerError,
	ErrCodeGraphError:         http.StatusInternalServerError,

	ErrCodePatentNumberMissing:  http.StatusBadRequest,
	ErrCodePatentNumberInvalid:  http.StatusBadRequest,
	ErrCodePatentDateInvalid:    http.StatusBadRequest,
	ErrCodePatentFamilyNotFound: http.StatusNotFound,

	ErrCodeConsolidationInvalidInput: http.StatusBadRequest,
	ErrCodeConsolidationRejected:     http.StatusUnprocessableEntity,
	ErrCodeConsolidationRunNotFound:  http.StatusNotFound,
	ErrCodeConsolidationBudget:       http.StatusOK,
	ErrCodeConsolidationOptions:      http.StatusBadRequest,

	ErrCodeReportFormatUnsupported: http.StatusBadRequest,
	ErrCodeReportRenderFailed:      http.StatusInternalServerError,
}

// ErrorCodeMessage holds the default user-facing message for each code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodeMessagingError:     "messaging error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeSearchError:        "search index error",
	ErrCodeGraphError:         "graph store error",

	ErrCodePatentNumberMissing:  "publication number is required",
	ErrCodePatentNumberInvalid:  "invalid publication number",
	ErrCodePatentDateInvalid:    "invalid patent date",
	ErrCodePatentFamilyNotFound: "patent family not found",

	ErrCodeConsolidationInvalidInput: "input is not a sequence of patent records",
	ErrCodeConsolidationRejected:     "record rejected",
	ErrCodeConsolidationRunNotFound:  "consolidation run not found",
	ErrCodeConsolidationBudget:       "time budget exhausted, result is partial",
	ErrCodeConsolidationOptions:      "invalid consolidation options",

	ErrCodeReportFormatUnsupported: "unsupported report format",
	ErrCodeReportRenderFailed:      "report rendering failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
