// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32                  // 32 bytes = 64 hex chars
	SessionTTL        = 30 * 24 * time.Hour // 30 days
)

// Session is the server-held proof that a client authenticated as a user.
type Session struct {
	// ID is DeriveSessionID(token). It is never sent to the client.
	ID        string
	UserID    ulid.ULID
	ExpiresAt time.Time
}

// NewSession creates a validated Session instance.
func NewSession(id string, userID ulid.ULID, expiresAt time.Time) (*Session, error) {
	if id == "" {
		return nil, oops.Code("SESSION_INVALID_ID").Errorf("session id cannot be empty")
	}
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &Session{ID: id, UserID: userID, ExpiresAt: expiresAt}, nil
}

// IsExpiredAt returns true if the session is expired at t.
// A session is expired from the instant ExpiresAt is reached.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// NeedsRenewalAt returns true if less than half of SessionTTL remains at t.
func (s *Session) NeedsRenewalAt(t time.Time) bool {
	return s.ExpiresAt.Sub(t) < SessionTTL/2
}

// GenerateSessionToken creates a secure random token and its derived session ID.
// The token is sent to the client; the ID is the storage key.
func GenerateSessionToken() (token, sessionID string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, DeriveSessionID(token), nil
}

// DeriveSessionID computes the storage key for a token: the hex SHA-256 of
// the token. Read access to stored sessions does not yield usable tokens.
func DeriveSessionID(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// shortID returns a log-safe prefix of a session ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByID retrieves a session by its derived ID.
	// Returns ErrNotFound if no session has the given ID.
	GetByID(ctx context.Context, id string) (*Session, error)

	// UpdateExpiry sets a new ExpiresAt for a session.
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes a session by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all sessions expired at now and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
