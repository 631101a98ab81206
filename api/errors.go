package api

import (
	"fmt"
)

// Error is a classified engine error. Two Errors match under errors.Is when
// their codes are equal.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements the errors.Is interface for error matching.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	if t.Message != "" {
		return e.Message == t.Message
	}
	return false
}

// Error codes
const (
	ErrCodeMalformedPatchLine    = "malformed_patch_line"
	ErrCodeUnresolvedPatchTarget = "unresolved_patch_target"
	ErrCodeNetworkFailure        = "network_failure"
	ErrCodeCancelled             = "cancelled"
	ErrCodeEnsembleSourceError   = "ensemble_source_error"
	ErrCodeProtocol              = "protocol_error"
)

// Sentinels for errors.Is.
var (
	ErrMalformedPatchLine    = &Error{Code: ErrCodeMalformedPatchLine}
	ErrUnresolvedPatchTarget = &Error{Code: ErrCodeUnresolvedPatchTarget}
	ErrNetworkFailure        = &Error{Code: ErrCodeNetworkFailure}
	ErrCancelled             = &Error{Code: ErrCodeCancelled}
	ErrEnsembleSourceError   = &Error{Code: ErrCodeEnsembleSourceError}
	ErrProtocol              = &Error{Code: ErrCodeProtocol}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError classifies err under code.
func WrapError(code string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
