package matchmaking

import (
	"errors"
	"fmt"
)

// ErrorKind groups error codes into the broad categories callers act on.
type ErrorKind string

const (
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindNotAuthorized          ErrorKind = "NOT_AUTHORIZED"
	KindInvalidState           ErrorKind = "INVALID_STATE"
	KindValidation             ErrorKind = "VALIDATION"
	KindConcurrentModification ErrorKind = "CONCURRENT_MODIFICATION"
)

// Error is a routine, expected failure of a negotiation or match operation.
// Code is stable and safe to show to clients.
type Error struct {
	Kind    ErrorKind `json:"-"`
	Code    string    `json:"code"`
	Message string    `json:"error"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches any *Error with the same code, so errors.Is works against the
// sentinels below regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound               = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "not found"}
	ErrNotAuthorized          = &Error{Kind: KindNotAuthorized, Code: "NOT_AUTHORIZED", Message: "actor is not a party to this operation"}
	ErrRequestNotPending      = &Error{Kind: KindInvalidState, Code: "REQUEST_NOT_PENDING", Message: "request is not the open proposal of an active thread"}
	ErrThreadClosed           = &Error{Kind: KindInvalidState, Code: "THREAD_CLOSED", Message: "negotiation thread is closed"}
	ErrMatchNotActive         = &Error{Kind: KindInvalidState, Code: "MATCH_NOT_ACTIVE", Message: "match is not active"}
	ErrMatchAlreadyCompleted  = &Error{Kind: KindInvalidState, Code: "MATCH_ALREADY_COMPLETED", Message: "match is already completed"}
	ErrValidation             = &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "invalid input"}
	ErrRoundLimitExceeded     = &Error{Kind: KindValidation, Code: "ROUND_LIMIT_EXCEEDED", Message: "round limit exceeded, negotiation closed without agreement"}
	ErrInvalidRating          = &Error{Kind: KindValidation, Code: "INVALID_RATING", Message: "rating must be between 1 and 5"}
	ErrConcurrentModification = &Error{Kind: KindConcurrentModification, Code: "CONCURRENT_MODIFICATION", Message: "concurrent modification, retry the operation"}
)

// NewError returns a copy of base with a more specific message.
func NewError(base *Error, format string, args ...any) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a matchmaking error, or "" for infrastructure errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is an optimistic-lock conflict that can be
// retried by re-running the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
