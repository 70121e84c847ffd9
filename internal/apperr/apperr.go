// Package apperr defines the user-visible error kinds shared by the chore
// workflow and the gamification ledger.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can render an actionable message.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindForbidden              Kind = "forbidden"
	KindInvalidInput           Kind = "invalid_input"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindAlreadyVerified        Kind = "already_verified"
	KindInvalidAmount          Kind = "invalid_amount"
	KindGamificationDisabled   Kind = "gamification_disabled"
	KindInsufficientBalance    Kind = "insufficient_balance"
	KindConflict               Kind = "conflict"
	KindInternal               Kind = "internal"
)

// Error is a classified error. Two Errors match under errors.Is when their
// kinds are equal, so the sentinels below work as targets.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden              = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrInvalidInput           = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition, Message: "invalid state transition"}
	ErrAlreadyVerified        = &Error{Kind: KindAlreadyVerified, Message: "assignment already verified"}
	ErrInvalidAmount          = &Error{Kind: KindInvalidAmount, Message: "amount must be positive"}
	ErrGamificationDisabled   = &Error{Kind: KindGamificationDisabled, Message: "gamification is disabled for this member"}
	ErrInsufficientBalance    = &Error{Kind: KindInsufficientBalance, Message: "insufficient family bucks"}
	ErrConflict               = &Error{Kind: KindConflict, Message: "conflict"}
)

// New returns an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return New(KindInvalidInput, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
