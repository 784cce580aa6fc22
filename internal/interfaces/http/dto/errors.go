package dto

import (
	"net/http"
	"strings"
)

// Error code constants. Domain error codes are exposed with the ERR_ prefix,
// e.g. OVERPAYMENT becomes ERR_OVERPAYMENT.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeUnauthorized    = "ERR_UNAUTHORIZED"
	ErrCodeForbidden       = "ERR_FORBIDDEN"
	ErrCodeTokenExpired    = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked    = "ERR_TOKEN_REVOKED"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeRouteNotFound   = "ERR_ROUTE_NOT_FOUND"
	ErrCodeAlreadyExists   = "ERR_ALREADY_EXISTS"
	ErrCodeConflict        = "ERR_CONFLICT"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"
)

// domainStatus maps domain error codes whose status differs from 400
var domainStatus = map[string]int{
	"NOT_FOUND":           http.StatusNotFound,
	"ARCHIVE_DISABLED":    http.StatusNotFound,
	"ALREADY_EXISTS":      http.StatusConflict,
	"CONFLICT":            http.StatusConflict,
	"INVALID_STATE":       http.StatusConflict,
	"INVALID_TRANSITION":  http.StatusConflict,
	"HAS_PAYMENTS":        http.StatusConflict,
	"HAS_INVOICES":        http.StatusConflict,
	"ALREADY_DEACTIVATED": http.StatusConflict,
	"UNAUTHORIZED":        http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_INVALID":       http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	"FORBIDDEN":           http.StatusForbidden,
	"ACCOUNT_LOCKED":      http.StatusForbidden,
	"ACCOUNT_DEACTIVATED": http.StatusForbidden,
	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,
}

// apiStatus maps the codes produced by the HTTP layer itself
var apiStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRouteNotFound:   http.StatusNotFound,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// DomainHTTPStatus returns the status for a domain error code. Every code
// not listed is a rejected input and answers 400.
func DomainHTTPStatus(code string) int {
	if status, ok := domainStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}

// GetHTTPStatus returns the status for an API error code, domain codes
// included in their ERR_ form. Unknown codes answer 500.
func GetHTTPStatus(code string) int {
	if status, ok := apiStatus[code]; ok {
		return status
	}
	if domain, ok := strings.CutPrefix(code, "ERR_"); ok && domain != "" {
		return DomainHTTPStatus(domain)
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain code to its API form
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeInternal
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
