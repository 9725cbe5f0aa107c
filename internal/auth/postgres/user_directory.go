// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/robskinney/remix-auth-example/internal/auth"
)

// UserDirectory implements auth.UserDirectory using PostgreSQL. Email
// uniqueness is enforced by the users_email_key constraint.
type UserDirectory struct {
	db DB
}

// NewUserDirectory creates a new UserDirectory.
func NewUserDirectory(db DB) *UserDirectory {
	return &UserDirectory{db: db}
}

const selectUser = `SELECT id, email, name, password_hash FROM users`

// FindByEmail retrieves a user by exact email.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := d.db.QueryRow(ctx, selectUser+` WHERE email = $1`, email)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (d *UserDirectory) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := d.db.QueryRow(ctx, selectUser+` WHERE id = $1`, id.String())
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// Insert stores a new user.
func (d *UserDirectory) Insert(ctx context.Context, user *auth.User) error {
	_, err := d.db.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
	`, user.ID.String(), user.Email, user.Name, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_EMAIL_TAKEN").
				With("constraint", pgErr.ConstraintName).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// scanUser scans one users row. pgx.ErrNoRows is returned unwrapped.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr string
		user  auth.User
	)
	if err := row.Scan(&idStr, &user.Email, &user.Name, &user.PasswordHash); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}
	user.ID = id
	return &user, nil
}

// Compile-time interface check.
var _ auth.UserDirectory = (*UserDirectory)(nil)
