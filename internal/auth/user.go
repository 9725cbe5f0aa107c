// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field length constraints, matching the users table columns.
const (
	MinEmailLength = 5
	MaxEmailLength = 255
	MaxNameLength  = 255
)

// User is an account identity record.
type User struct {
	ID    ulid.ULID
	Email string
	Name  string
	// PasswordHash is an opaque PHC string. Never compare or log it.
	PasswordHash string
}

// NewUser creates a validated User with a fresh ID.
// The name is trimmed; the email is kept exactly as given.
func NewUser(email, name, passwordHash string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, oops.Code("AUTH_INVALID_PASSWORD_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
	}, nil
}

// String keeps the password hash out of formatted output.
func (u User) String() string {
	return "User{" + u.ID.String() + "}"
}

// LogValue keeps the password hash out of structured logs.
func (u User) LogValue() slog.Value {
	return slog.GroupValue(slog.String("id", u.ID.String()))
}

// ValidateEmail checks that email is a bare address within the length bounds.
func ValidateEmail(email string) error {
	if len(email) < MinEmailLength || len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("min", MinEmailLength).
			With("max", MaxEmailLength).
			Wrapf(ErrInvalidInput, "email must be between %d and %d characters", MinEmailLength, MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrInvalidInput, "email is not a valid address")
	}
	return nil
}

// ValidatePassword checks the password length in characters.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			With("max", MaxPasswordLength).
			Wrapf(ErrInvalidInput, "password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)
	}
	return nil
}

// ValidateName checks a display name that has already been trimmed.
func ValidateName(name string) error {
	if name == "" {
		return oops.Code("AUTH_INVALID_NAME").Wrapf(ErrInvalidInput, "name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("max", MaxNameLength).
			Wrapf(ErrInvalidInput, "name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// UserDirectory manages user persistence.
type UserDirectory interface {
	// FindByEmail retrieves a user by exact (case-sensitive) email.
	// Returns ErrNotFound if no user has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// Insert stores a new user. Returns ErrDuplicateEmail if the email is taken.
	Insert(ctx context.Context, user *User) error
}
