package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of a registration failure.
type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindDuplicateEmail Kind = "duplicate_email"
	KindSessionExpired Kind = "session_expired"
	KindInvalidCode    Kind = "invalid_code"
	KindExpiredCode    Kind = "expired_code"
	KindDelivery       Kind = "delivery_failed"
	KindStorage        Kind = "storage_error"
)

// Error carries a Kind plus a human readable message. Field is only set for
// validation failures.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrDuplicateEmail = &Error{Kind: KindDuplicateEmail, Message: "email is already registered"}
	ErrSessionExpired = &Error{Kind: KindSessionExpired, Message: "registration session expired, please register again"}
	ErrInvalidCode    = &Error{Kind: KindInvalidCode, Message: "invalid verification code"}
	ErrExpiredCode    = &Error{Kind: KindExpiredCode, Message: "verification code expired, request a new one"}
	ErrDelivery       = &Error{Kind: KindDelivery, Message: "verification code could not be delivered"}
	ErrStorage        = &Error{Kind: KindStorage, Message: "storage unavailable"}
)

func NewValidationError(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: reason}
}

func NewDeliveryError(err error) *Error {
	return &Error{Kind: KindDelivery, Message: ErrDelivery.Message, Err: err}
}

// NewStorageError wraps an infrastructure failure. Errors that already carry a
// Kind pass through unchanged.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStorage, Message: ErrStorage.Message, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the Kind of err, or the empty Kind for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
