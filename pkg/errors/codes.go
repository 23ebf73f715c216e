package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
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
	ErrCodeStorageError       ErrorCode = "COMMON_015"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_016"
	ErrCodeNotImplemented     ErrorCode = "COMMON_017"
)

// Short aliases used across layers.
const (
	CodeUnknown        = ErrorCode("UNKNOWN")
	CodeOK             = ErrorCode("OK")
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeValidation     = ErrCodeValidation
	CodeDatabaseError  = ErrCodeDatabaseError
	CodeCacheError     = ErrCodeCacheError
	CodeNotImplemented = ErrCodeNotImplemented
)

// Template Module Error Codes
const (
	ErrCodeTemplateNotFound      ErrorCode = "TPL_001"
	ErrCodeTemplateConfigInvalid ErrorCode = "TPL_002"
)

// Assembly Module Error Codes
const (
	ErrCodeMalformedSchema        ErrorCode = "ASM_001"
	ErrCodeAssemblySchemaNotFound ErrorCode = "ASM_002"
	ErrCodeAssemblyTypeInvalid    ErrorCode = "ASM_003"
	ErrCodeAssemblyFailed         ErrorCode = "ASM_004"
)

// Chemistry Oracle Error Codes
const (
	ErrCodeOracleUnavailable ErrorCode = "CHEM_001"
	ErrCodeOracleBadResponse ErrorCode = "CHEM_002"
)

// Job Module Error Codes
const (
	ErrCodeJobNotFound ErrorCode = "JOB_001"
	ErrCodeJobFailed   ErrorCode = "JOB_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
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
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeTemplateNotFound:      http.StatusNotFound,
	ErrCodeTemplateConfigInvalid: http.StatusBadRequest,

	ErrCodeMalformedSchema:        http.StatusBadRequest,
	ErrCodeAssemblySchemaNotFound: http.StatusNotFound,
	ErrCodeAssemblyTypeInvalid:    http.StatusBadRequest,
	ErrCodeAssemblyFailed:         http.StatusInternalServerError,

	ErrCodeOracleUnavailable: http.StatusBadGateway,
	ErrCodeOracleBadResponse: http.StatusBadGateway,

	ErrCodeJobNotFound: http.StatusNotFound,
	ErrCodeJobFailed:   http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
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
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessageQueueError:  "message queue error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeTemplateNotFound:      "template not found",
	ErrCodeTemplateConfigInvalid: "invalid template configuration",

	ErrCodeMalformedSchema:        "malformed assembly schema",
	ErrCodeAssemblySchemaNotFound: "assembly schema not found",
	ErrCodeAssemblyTypeInvalid:    "unsupported assembly type",
	ErrCodeAssemblyFailed:         "assembly failed",

	ErrCodeOracleUnavailable: "chemistry service unavailable",
	ErrCodeOracleBadResponse: "chemistry service returned an invalid response",

	ErrCodeJobNotFound: "job not found",
	ErrCodeJobFailed:   "job failed",
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
