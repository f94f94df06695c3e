package services

import (
	"errors"
	"fmt"

	"github.com/jjudge-oj/authsvc/internal/token"
)

// Kind classifies a failure for callers outside the service boundary.
type Kind string

const (
	KindDuplicateIdentity Kind = "DuplicateIdentity"
	KindInvalidCredential Kind = "InvalidCredential"
	KindMissingCredential Kind = "MissingCredential"
	KindExpiredCredential Kind = "ExpiredCredential"
	KindNotFound          Kind = "NotFound"
	KindInvalidInput      Kind = "InvalidInput"

	// KindInternal is an unexpected fault. It is not part of the domain
	// taxonomy and its cause is never shown to callers.
	KindInternal Kind = "Internal"
)

// Error is the structured failure returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps input field names to validation problems.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for errors built with different messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrDuplicateIdentity = &Error{Kind: KindDuplicateIdentity, Message: "email is already registered"}
	// ErrInvalidCredential is shared by every credential failure path: unknown
	// email, wrong password, and a valid token naming a deleted user.
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "invalid credentials"}
	ErrMissingCredential = &Error{Kind: KindMissingCredential, Message: "missing or malformed bearer token"}
	ErrExpiredCredential = &Error{Kind: KindExpiredCredential, Message: "token has expired"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput, Message: "invalid input"}
)

// KindOf returns the kind of err, or KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// FromTokenError maps a verification failure to its outward credential error.
func FromTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrMissing):
		return ErrMissingCredential
	case errors.Is(err, token.ErrExpired):
		return ErrExpiredCredential
	default:
		return ErrInvalidCredential
	}
}

func internalError(op string, err error) error {
	return &Error{Kind: KindInternal, Message: op, Err: err}
}

func invalidInput(fields map[string]string) error {
	return &Error{Kind: KindInvalidInput, Message: "invalid input", Fields: fields}
}
