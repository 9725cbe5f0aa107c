// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/robskinney/remix-auth-example/internal/observability"
)

var tracer = otel.Tracer("remix-auth/auth")

// Validation is the outcome of SessionManager.Validate. The zero value means
// unauthenticated; expired and unknown tokens both produce it.
type Validation struct {
	User    *User
	Session *Session
	// Renewed is true when this validation extended the session expiry, so
	// the caller should re-send the cookie with the new expiry.
	Renewed bool
}

// Authenticated reports whether the validation identified a user.
func (v Validation) Authenticated() bool {
	return v.Session != nil && v.User != nil
}

// SessionManager creates, validates and invalidates sessions.
type SessionManager struct {
	sessions SessionRepository
	users    UserDirectory
	now      func() time.Time
	logger   *slog.Logger
	metrics  *observability.AuthMetrics
}

// SessionManagerOption configures a SessionManager during construction.
type SessionManagerOption func(*SessionManager)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// WithSessionLogger sets the logger used for best-effort failures.
func WithSessionLogger(logger *slog.Logger) SessionManagerOption {
	return func(m *SessionManager) {
		m.logger = logger
	}
}

// WithSessionMetrics records validation outcomes in metrics.
func WithSessionMetrics(metrics *observability.AuthMetrics) SessionManagerOption {
	return func(m *SessionManager) {
		m.metrics = metrics
	}
}

// NewSessionManager creates a SessionManager. Returns an error if a
// repository is nil.
func NewSessionManager(sessions SessionRepository, users UserDirectory, opts ...SessionManagerOption) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("sessions repository is required")
	}
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user directory is required")
	}
	m := &SessionManager{
		sessions: sessions,
		users:    users,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return m, nil
}

// Issue generates a new token and creates a session for userID.
// The returned token is what the client holds.
func (m *SessionManager) Issue(ctx context.Context, userID ulid.ULID) (string, *Session, error) {
	token, _, err := GenerateSessionToken()
	if err != nil {
		return "", nil, err
	}
	session, err := m.Create(ctx, token, userID)
	if err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// Create stores a session keyed by DeriveSessionID(token) that expires
// SessionTTL from now.
func (m *SessionManager) Create(ctx context.Context, token string, userID ulid.ULID) (*Session, error) {
	ctx, span := tracer.Start(ctx, "session.create",
		trace.WithAttributes(attribute.String("user.id", userID.String())),
	)
	defer span.End()

	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	session, err := NewSession(DeriveSessionID(token), userID, m.now().Add(SessionTTL))
	if err != nil {
		return nil, err
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist session")
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return session, nil
}

// Validate resolves a token to its user. Expired sessions are deleted on
// sight, and sessions with less than half of SessionTTL left are extended to
// SessionTTL from now. The error is non-nil only for storage failures.
func (m *SessionManager) Validate(ctx context.Context, token string) (Validation, error) {
	ctx, span := tracer.Start(ctx, "session.validate")
	defer span.End()

	if token == "" {
		return m.unauthenticated(), nil
	}

	id := DeriveSessionID(token)
	session, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return m.unauthenticated(), nil
		}
		return m.failed(span, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by id").
			Wrap(err))
	}

	now := m.now()
	if session.IsExpiredAt(now) {
		m.reap(ctx, session.ID, "expired")
		return m.unauthenticated(), nil
	}

	renewed := false
	if session.NeedsRenewalAt(now) {
		expiresAt := now.Add(SessionTTL)
		err := m.sessions.UpdateExpiry(ctx, session.ID, expiresAt)
		switch {
		case err == nil:
			session.ExpiresAt = expiresAt
			renewed = true
		case errors.Is(err, ErrNotFound):
			// Invalidated between the read and the write.
			return m.unauthenticated(), nil
		default:
			// The session is still valid until its current expiry.
			m.logger.WarnContext(ctx, "best-effort session update failed",
				"operation", "renew_session",
				"session", shortID(session.ID),
				"error", err,
			)
		}
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.reap(ctx, session.ID, "orphaned")
			return m.unauthenticated(), nil
		}
		return m.failed(span, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get user by id").
			With("user_id", session.UserID.String()).
			Wrap(err))
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID.String()),
		attribute.Bool("session.renewed", renewed),
	)
	if renewed {
		m.metrics.RecordValidation(observability.OutcomeRenewed)
	} else {
		m.metrics.RecordValidation(observability.OutcomeAuthenticated)
	}
	return Validation{User: user, Session: session, Renewed: renewed}, nil
}

// Invalidate deletes the session for token. Invalidating an absent session
// is not an error.
func (m *SessionManager) Invalidate(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "session.invalidate")
	defer span.End()

	if token == "" {
		return nil
	}

	id := DeriveSessionID(token)
	if err := m.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete session")
		return oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "delete session").
			With("session", shortID(id)).
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes every session expired at the current time.
func (m *SessionManager) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return n, nil
}

// reap deletes a session that can no longer authenticate. Failures are
// logged; the next validation or sweep retries.
func (m *SessionManager) reap(ctx context.Context, id, reason string) {
	if err := m.sessions.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.WarnContext(ctx, "best-effort session delete failed",
			"operation", "reap_session",
			"reason", reason,
			"session", shortID(id),
			"error", err,
		)
	}
}

func (m *SessionManager) unauthenticated() Validation {
	m.metrics.RecordValidation(observability.OutcomeUnauthenticated)
	return Validation{}
}

func (m *SessionManager) failed(span trace.Span, err error) (Validation, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "validate session")
	m.metrics.RecordValidation(observability.OutcomeError)
	return Validation{}, err
}
