// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package httpauth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/robskinney/remix-auth-example/internal/auth"
	"github.com/robskinney/remix-auth-example/pkg/errutil"
)

// Validator resolves a session token. auth.SessionManager implements it.
type Validator interface {
	Validate(ctx context.Context, token string) (auth.Validation, error)
}

// Identity is the authenticated user attached to a request.
type Identity struct {
	User    *auth.User
	Session *auth.Session
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by Middleware. The second result
// is false for anonymous requests.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Middleware resolves the session cookie on every request.
type Middleware struct {
	validator Validator
	cookies   *CookieTransport
	logger    *slog.Logger
}

// NewMiddleware creates a Middleware.
func NewMiddleware(validator Validator, cookies *CookieTransport, logger *slog.Logger) (*Middleware, error) {
	if validator == nil {
		return nil, oops.Code("HTTPAUTH_NIL_VALIDATOR").Errorf("session validator is required")
	}
	if cookies == nil {
		return nil, oops.Code("HTTPAUTH_NIL_COOKIES").Errorf("cookie transport is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{validator: validator, cookies: cookies, logger: logger}, nil
}

// Handler attaches the request's identity, if any, and passes the request
// on. A cookie that no longer authenticates is cleared, and a renewed
// session's cookie is re-sent with the new expiry. A storage failure is a
// 503 rather than an anonymous request.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := m.cookies.Token(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		v, err := m.validator.Validate(r.Context(), token)
		if err != nil {
			errutil.LogErrorContext(r.Context(), m.logger, "session validation failed", err)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		if !v.Authenticated() {
			m.cookies.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		if v.Renewed {
			m.cookies.Set(w, token, v.Session.ExpiresAt)
		}

		ctx := WithIdentity(r.Context(), Identity{User: v.User, Session: v.Session})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests with 401. It must run inside
// Middleware.Handler.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
