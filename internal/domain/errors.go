package domain

import (
	"errors"   // Sentinel errors
	"net/http" // HTTP status codes
)

// ErrNotFound is returned by the store when no wallet matches a lookup
var ErrNotFound = errors.New("record not found")

// Kind classifies an AppError
type Kind string

// Error kinds
const (
	KindValidation          Kind = "validation"
	KindUnauthorized        Kind = "unauthorized"
	KindInvalidCredentials  Kind = "invalid_credentials"
	KindInvalidAccount      Kind = "invalid_account"
	KindSelfTransfer        Kind = "self_transfer"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindConflict            Kind = "conflict"
	KindTransactionFailure  Kind = "transaction_failure"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
)

// Unauthorized reasons
const (
	ReasonExpired = "expired"
	ReasonInvalid = "invalid"
)

// Sentinels for errors.Is; matching is by kind only
var (
	ErrValidation          = &AppError{Kind: KindValidation}
	ErrUnauthorized        = &AppError{Kind: KindUnauthorized}
	ErrInvalidCredentials  = &AppError{Kind: KindInvalidCredentials}
	ErrInvalidAccount      = &AppError{Kind: KindInvalidAccount}
	ErrSelfTransfer        = &AppError{Kind: KindSelfTransfer}
	ErrInsufficientBalance = &AppError{Kind: KindInsufficientBalance}
	ErrConflict            = &AppError{Kind: KindConflict}
	ErrTransactionFailure  = &AppError{Kind: KindTransactionFailure}
)

// User-facing messages
const (
	MsgSourceMissing       = "Invalid Wallet. Wallet Does Not Exist!"
	MsgRecipientMissing    = "Invalid Wallet! The wallet you want to transfer funds to does not exist."
	MsgSelfTransfer        = "Invalid Transfer! You cannot transfer funds to yourself."
	MsgInsufficientBalance = "Insufficient Balance. Fund your wallet!"
	MsgTransactionFailure  = "Transaction failed. No funds were moved."
	MsgInvalidCredentials  = "Invalid email or Password!"
	MsgWrongPassword       = "Current password is incorrect!"
	MsgIdenticalEmail      = "EMAIL IS IDENTICAL TO CURRENT EMAIL!"
	MsgTokenExpired        = "Token Expired. Please Login!"
	MsgTokenInvalid        = "Invalid Token. Please Login!"
	MsgNotLoggedIn         = "Authentication Failed. Please Log In!"
	MsgForbidden           = "You do not have permission to perform this action!"
)

// AppError is an operational error: expected, safe to show the client
type AppError struct {
	Kind       Kind   // Classification
	StatusCode int    // HTTP status
	Message    string // Client-facing message
	Reason     string // Optional sub-reason (expired, invalid)
	Err        error  // Underlying cause, never rendered
}

// Error implements error
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

// Status is "Fail" for client errors and "Error" otherwise
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "Fail"
	}
	return "Error"
}

func newError(kind Kind, code int, msg string, cause error) *AppError {
	return &AppError{Kind: kind, StatusCode: code, Message: msg, Err: cause}
}

// Validation builds a 400 validation error
func Validation(msg string) *AppError {
	return newError(KindValidation, http.StatusBadRequest, msg, nil)
}

// Unauthorized builds a 401 error with a reason
func Unauthorized(reason, msg string) *AppError {
	e := newError(KindUnauthorized, http.StatusUnauthorized, msg, nil)
	e.Reason = reason
	return e
}

// InvalidCredentials builds a 401 login/password error
func InvalidCredentials(msg string) *AppError {
	return newError(KindInvalidCredentials, http.StatusUnauthorized, msg, nil)
}

// InvalidAccount builds a 400 missing-wallet error
func InvalidAccount(msg string) *AppError {
	return newError(KindInvalidAccount, http.StatusBadRequest, msg, nil)
}

// SelfTransfer builds a 400 self-transfer error
func SelfTransfer() *AppError {
	return newError(KindSelfTransfer, http.StatusBadRequest, MsgSelfTransfer, nil)
}

// InsufficientBalance builds a 400 insufficient balance error
func InsufficientBalance() *AppError {
	return newError(KindInsufficientBalance, http.StatusBadRequest, MsgInsufficientBalance, nil)
}

// Conflict builds a 409 uniqueness error
func Conflict(msg string, cause error) *AppError {
	return newError(KindConflict, http.StatusConflict, msg, cause)
}

// TransactionFailure builds a 500 error for an aborted atomic unit
func TransactionFailure(cause error) *AppError {
	return newError(KindTransactionFailure, http.StatusInternalServerError, MsgTransactionFailure, cause)
}

// Forbidden builds a 403 error
func Forbidden() *AppError {
	return newError(KindForbidden, http.StatusForbidden, MsgForbidden, nil)
}

// NotFound builds a 404 error
func NotFound(msg string) *AppError {
	return newError(KindNotFound, http.StatusNotFound, msg, nil)
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr, true
	}
	return nil, false
}
