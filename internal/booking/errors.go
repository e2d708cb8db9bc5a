package booking

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind is a stable, machine-readable rejection reason.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindNotAvailable     Kind = "not_available"
	KindAlreadyJoined    Kind = "already_joined"
	KindTimeConflict     Kind = "time_conflict"
	KindSessionFull      Kind = "session_full"
	KindAlreadyCancelled Kind = "already_cancelled"
	KindForbidden        Kind = "forbidden"
	KindUnavailable      Kind = "unavailable"
)

// Error is returned by every Engine operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or "" when err is not a booking error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// translate maps a storage fault onto the error taxonomy. Rule rejections
// raised inside a transaction pass through untouched.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindAlreadyJoined, Message: "you have already joined this session", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnavailable, Message: op + " timed out", Err: err}
	default:
		return &Error{Kind: KindUnavailable, Message: op + " failed", Err: err}
	}
}
