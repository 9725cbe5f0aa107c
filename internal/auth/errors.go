// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth

import "errors"

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned when the email is unknown or the password
// does not match. Both cases share this error so callers cannot tell them apart.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// ErrDuplicateEmail is returned when signing up with an email that is already registered.
var ErrDuplicateEmail = errors.New("email is already registered")

// ErrInvalidInput is returned when signup or login input fails validation.
var ErrInvalidInput = errors.New("invalid input")

// Kind classifies errors returned by this package.
type Kind int

// Error kinds.
const (
	KindNone Kind = iota
	KindInvalidCredentials
	KindDuplicateEmail
	KindInvalidInput
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindInvalidInput:
		return "invalid_input"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of err. Any non-nil error that is not one of the
// domain failures is a transient storage failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindStorage
	}
}
