package bizerror

import (
	"commandr/common"
	"net/http"
)

// Err is a business error with a fixed response. Sentinel values are compared by identity.
type Err struct {
	Status  int
	Code    string
	Message string
}

func (e *Err) Error() string {
	return e.Message
}

func (e *Err) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: e.Status, Code: e.Code, Message: e.Message}
}

var (
	ErrInvalidCredentials = &Err{Status: http.StatusUnauthorized, Code: "security.invalid_credentials", Message: "invalid credentials"}
	ErrAccountInactive    = &Err{Status: http.StatusUnauthorized, Code: "security.account_inactive", Message: "account is inactive"}
	ErrEmailRequired      = &Err{Status: http.StatusBadRequest, Code: "security.email_required", Message: "email is required"}
	ErrPasswordRequired   = &Err{Status: http.StatusBadRequest, Code: "security.password_required", Message: "password is required"}
	ErrTooManyAttempts    = &Err{Status: http.StatusTooManyRequests, Code: "security.too_many_attempts", Message: "too many sign-in attempts"}

	ErrMissingToken   = &Err{Status: http.StatusUnauthorized, Code: "session.missing_token", Message: "session token not found"}
	ErrMalformedToken = &Err{Status: http.StatusUnauthorized, Code: "session.malformed_token", Message: "session token is malformed"}
	ErrExpiredToken   = &Err{Status: http.StatusUnauthorized, Code: "session.expired_token", Message: "session token is expired"}

	ErrAuthorityNotFound = &Err{Status: http.StatusForbidden, Code: "security.authority_not_found", Message: "authority not found"}
	ErrUnauthenticated   = &Err{Status: http.StatusUnauthorized, Code: "common.unauthenticated", Message: "unauthenticated"}
	ErrForbidden         = &Err{Status: http.StatusForbidden, Code: "security.forbidden", Message: "access forbidden"}

	ErrInvalidPassword = &Err{Status: http.StatusBadRequest, Code: "security.invalid_password", Message: "invalid password"}
	ErrEmailExisted    = &Err{Status: http.StatusConflict, Code: "security.email_existed", Message: "email already registered"}
	ErrNotFound        = &Err{Status: http.StatusNotFound, Code: "common.record_not_found", Message: "record not found"}
)

// IsSessionError reports whether err is one of the token failures.
func IsSessionError(err error) bool {
	switch err {
	case ErrMissingToken, ErrMalformedToken, ErrExpiredToken:
		return true
	}
	return false
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: e.Error(), Data: nil}
}

// ErrStoreUnavailable wraps a transient backing store failure. It is the only error a caller may retry.
type ErrStoreUnavailable struct {
	Cause error
}

func StoreUnavailable(cause error) error {
	return &ErrStoreUnavailable{Cause: cause}
}

func (e *ErrStoreUnavailable) Unwrap() error {
	return e.Cause
}
func (e *ErrStoreUnavailable) Error() string {
	if e.Cause != nil {
		return "store unavailable: " + e.Cause.Error()
	}
	return "store unavailable"
}
func (e *ErrStoreUnavailable) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusServiceUnavailable, Code: "common.store_unavailable", Message: "store unavailable", Cause: e.Cause}
}
