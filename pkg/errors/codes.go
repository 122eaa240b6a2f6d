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
	ErrCodeInvalidConfig      ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Prediction Module Error Codes
const (
	ErrCodeInvalidProfile      ErrorCode = "PRED_001"
	ErrCodeInvalidTreatmentIDs ErrorCode = "PRED_002"
	ErrCodeTreatmentNotFound   ErrorCode = "PRED_003"
	ErrCodeComputation         ErrorCode = "PRED_004"
	ErrCodeInvalidModelConfig  ErrorCode = "PRED_005"
)

// Store Module Error Codes
const (
	ErrCodeStoreUnavailable ErrorCode = "STORE_001"
	ErrCodeStoreQuery       ErrorCode = "STORE_002"
	ErrCodeCatalogInvalid   ErrorCode = "STORE_003"
	ErrCodeMigration        ErrorCode = "STORE_004"
)

// Messaging Module Error Codes
const (
	ErrCodeMessagePublish ErrorCode = "MSG_001"
	ErrCodeMessageConsume ErrorCode = "MSG_002"
	ErrCodeMessageInvalid ErrorCode = "MSG_003"
)

// ErrorCodeHTTPStatus maps every code to the HTTP status returned to API callers.
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
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeInvalidConfig:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeInvalidProfile:      http.StatusBadRequest,
	ErrCodeInvalidTreatmentIDs: http.StatusBadRequest,
	ErrCodeTreatmentNotFound:   http.StatusNotFound,
	ErrCodeComputation:         http.StatusInternalServerError,
	ErrCodeInvalidModelConfig:  http.StatusInternalServerError,

	ErrCodeStoreUnavailable: http.StatusServiceUnavailable,
	ErrCodeStoreQuery:       http.StatusInternalServerError,
	ErrCodeCatalogInvalid:   http.StatusInternalServerError,
	ErrCodeMigration:        http.StatusInternalServerError,

	ErrCodeMessagePublish: http.StatusInternalServerError,
	ErrCodeMessageConsume: http.StatusInternalServerError,
	ErrCodeMessageInvalid: http.StatusBadRequest,
}

// ErrorCodeMessage holds the default user-facing message per code.
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
	ErrCodeSerialization:      "malformed payload",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeInvalidConfig:      "invalid configuration",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidProfile:      "invalid patient profile",
	ErrCodeInvalidTreatmentIDs: "invalid treatment identifiers",
	ErrCodeTreatmentNotFound:   "treatment not found",
	ErrCodeComputation:         "prediction computation failed",
	ErrCodeInvalidModelConfig:  "invalid model configuration",

	ErrCodeStoreUnavailable: "record store unavailable",
	ErrCodeStoreQuery:       "record store query failed",
	ErrCodeCatalogInvalid:   "treatment catalog is invalid",
	ErrCodeMigration:        "schema migration failed",

	ErrCodeMessagePublish: "failed to publish message",
	ErrCodeMessageConsume: "failed to consume message",
	ErrCodeMessageInvalid: "invalid message payload",
}

// HTTPStatusForCode returns the HTTP status for code, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the registered default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module prefix of code ("PRED", "STORE", ...).
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	if idx := strings.Index(s, "_"); idx > 0 {
		return s[:idx]
	}
	return ""
}

//Personal.AI order the ending
