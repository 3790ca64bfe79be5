// Package domainerrors defines coded errors shared by services and transports.
//
// Services return these so the HTTP layer can map them to status codes
// without inspecting messages. Infrastructure facts (not found, conflict)
// come from pkg/platform/sentinel and are translated by services.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, client-visible error identifier.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTooManyRequests    Code = "too_many_requests"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodePersistence        Code = "persistence_error"

	// Identity and policy codes.
	CodeAmbiguousRole Code = "ambiguous_role"
	CodeUnknownRole   Code = "unknown_role"

	// Fund lifecycle codes.
	CodeInvalidCommission    Code = "invalid_commission"
	CodeUnknownAdministrator Code = "unknown_administrator"
	CodeUnknownInvestor      Code = "unknown_investor"
	CodeFundNotRaising       Code = "fund_not_raising"
	CodeAlreadyActive        Code = "already_active"
	CodeCapitalExceeded      Code = "capital_target_exceeded"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a coded error without a cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to err. A nil err still yields an error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost coded error in err's chain.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// MessageOf returns the client-facing message of the outermost coded error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// IsPersistence reports whether err is a storage failure (unreachable store or timeout).
func IsPersistence(err error) bool {
	return HasCode(err, CodePersistence) || HasCode(err, CodeTimeout)
}
