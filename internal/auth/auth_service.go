// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/robskinney/remix-auth-example/internal/observability"
)

// SignupRequest is the input to Service.Signup.
type SignupRequest struct {
	Email    string
	Name     string
	Password string
}

// Issued is the result of a successful signup or login. Token is the only
// value the client should receive.
type Issued struct {
	User    *User
	Session *Session
	Token   string
}

// Service provides signup, login and logout.
type Service struct {
	users    UserDirectory
	sessions *SessionManager
	hasher   *HashPool
	logger   *slog.Logger
	metrics  *observability.AuthMetrics

	// dummyHash is verified against for unknown emails so both login
	// failures cost one verification.
	dummyHash string
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics records signup and login results in metrics.
func WithMetrics(metrics *observability.AuthMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// NewService creates a Service. Returns an error if any dependency is nil.
func NewService(users UserDirectory, sessions *SessionManager, hasher *HashPool, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user directory is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("session manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("hash pool is required")
	}
	s := &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	dummy, err := newDummyHash(hasher)
	if err != nil {
		return nil, err
	}
	s.dummyHash = dummy
	return s, nil
}

// Signup validates the request, stores a new user and issues a session.
// Returns an error wrapping ErrDuplicateEmail if the email is registered.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (issued *Issued, err error) {
	ctx, span := tracer.Start(ctx, "auth.signup")
	defer func() {
		s.metrics.RecordSignup(resultOf(err))
		endSpan(span, err)
	}()

	user, err := s.register(ctx, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	return s.issue(ctx, user)
}

// Register validates the request and stores a new user without issuing a
// session. It backs administrative account creation.
func (s *Service) Register(ctx context.Context, req SignupRequest) (*User, error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	user, err := s.register(ctx, req)
	endSpan(span, err)
	return user, err
}

func (s *Service) register(ctx context.Context, req SignupRequest) (*User, error) {
	if err := ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := ValidateName(strings.TrimSpace(req.Name)); err != nil {
		return nil, err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, oops.Code("AUTH_STORAGE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(req.Email, req.Name, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
		}
		return nil, oops.Code("AUTH_STORAGE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return user, nil
}

// Login authenticates email and password and issues a new session. Unknown
// emails and wrong passwords fail with the same ErrInvalidCredentials error,
// and both perform one password verification.
func (s *Service) Login(ctx context.Context, email, password string) (issued *Issued, err error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer func() {
		s.metrics.RecordLogin(resultOf(err))
		endSpan(span, err)
	}()

	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	user, lookupErr := s.users.FindByEmail(ctx, email)
	var targetHash string
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		user = nil
		targetHash = s.dummyHash
	default:
		return nil, oops.Code("AUTH_STORAGE_FAILED").
			With("operation", "find user by email").
			Wrap(lookupErr)
	}

	valid, err := s.hasher.Verify(ctx, password, targetHash)
	if err != nil {
		return nil, oops.Code("AUTH_STORAGE_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if user == nil || !valid {
		return nil, invalidCredentials()
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	return s.issue(ctx, user)
}

// Logout invalidates the session for token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "auth.logout")
	err := s.sessions.Invalidate(ctx, token)
	endSpan(span, err)
	return err
}

// Sessions returns the session manager used for request validation.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

func (s *Service) issue(ctx context.Context, user *User) (*Issued, error) {
	token, session, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, oops.Code("AUTH_STORAGE_FAILED").
			With("operation", "issue session").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return &Issued{User: user, Session: session, Token: token}, nil
}

// newDummyHash hashes a random password with the configured hasher, so the
// dummy carries the same cost parameters as real user hashes.
func newDummyHash(hasher *HashPool) (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", oops.Code("AUTH_DUMMY_HASH_FAILED").With("operation", "read random password").Wrap(err)
	}
	hash, err := hasher.Hash(context.Background(), hex.EncodeToString(b[:]))
	if err != nil {
		return "", oops.Code("AUTH_DUMMY_HASH_FAILED").With("operation", "hash dummy password").Wrap(err)
	}
	return hash, nil
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

func resultOf(err error) string {
	if err == nil {
		return observability.ResultSuccess
	}
	return KindOf(err).String()
}

func endSpan(span trace.Span, err error) {
	if err != nil && KindOf(err) == KindStorage {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failure")
	}
	span.End()
}
