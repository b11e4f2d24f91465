package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a gateway error carrying the HTTP status and a stable code the
// console front end switches on.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, ErrRemote) matches any remote failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// From wraps cause under the code and status of base. An empty message keeps
// the message of base.
func From(base *Error, cause error, message string) *Error {
	if message == "" {
		message = base.Message
	}
	return &Error{Code: base.Code, Status: base.Status, Message: message, Err: cause}
}

var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrTooManyRequests    = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "too many requests")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrSessionExpired     = New("SESSION_EXPIRED", http.StatusUnauthorized, "console session expired")
	ErrUnknownScreen      = New("UNKNOWN_SCREEN", http.StatusNotFound, "unknown screen")
	// ErrRemote carries a message produced by the remote list service.
	ErrRemote = New("REMOTE_ERROR", http.StatusBadGateway, "remote service rejected the request")
	// ErrUpstream reports that the remote list service could not be reached or
	// answered without a usable message.
	ErrUpstream = New("UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "remote list service unavailable")
)

// FromError normalises any error into an *Error. Unknown errors become
// ErrInternal with the original kept as the cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return From(ErrInternal, err, "")
}

// RemoteMessage returns the message the remote list service attached to err,
// or "" when err did not come from the remote service.
func RemoteMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Is(ErrRemote) {
		return e.Message
	}
	return ""
}

// Clone returns a copy of err with an optional message override.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
