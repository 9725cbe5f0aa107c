// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package httpauth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robskinney/remix-auth-example/internal/auth"
	"github.com/robskinney/remix-auth-example/internal/httpauth"
)

// stubValidator returns a fixed validation result per token.
type stubValidator struct {
	results map[string]auth.Validation
	err     error
}

func (s stubValidator) Validate(_ context.Context, token string) (auth.Validation, error) {
	if s.err != nil {
		return auth.Validation{}, s.err
	}
	return s.results[token], nil
}

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpauth.IdentityFrom(r.Context())
		if !ok {
			_, _ = fmt.Fprint(w, "anonymous")
			return
		}
		_, _ = fmt.Fprint(w, id.User.Email)
	})
}

func newMiddleware(t *testing.T, v httpauth.Validator) *httpauth.Middleware {
	t.Helper()
	m, err := httpauth.NewMiddleware(v, httpauth.NewCookieTransport(httpauth.WithCookieClock(clock)), nil)
	require.NoError(t, err)
	return m
}

func validation(renewed bool, expiresAt time.Time) auth.Validation {
	user := &auth.User{ID: ulid.Make(), Email: "a@b.com", Name: "Jane Doe"}
	return auth.Validation{
		User:    user,
		Session: &auth.Session{ID: "sid", UserID: user.ID, ExpiresAt: expiresAt},
		Renewed: renewed,
	}
}

func TestNewMiddleware(t *testing.T) {
	_, err := httpauth.NewMiddleware(nil, httpauth.NewCookieTransport(), nil)
	assert.Error(t, err)
	_, err = httpauth.NewMiddleware(stubValidator{}, nil, nil)
	assert.Error(t, err)
}

func TestMiddleware_Anonymous(t *testing.T) {
	m := newMiddleware(t, stubValidator{})

	apitest.New().
		Handler(m.Handler(whoami())).
		Get("/").
		Expect(t).
		Status(http.StatusOK).
		Body("anonymous").
		CookieNotPresent(httpauth.CookieName).
		End()
}

func TestMiddleware_Authenticated(t *testing.T) {
	m := newMiddleware(t, stubValidator{results: map[string]auth.Validation{
		"good": validation(false, now.Add(auth.SessionTTL)),
	}})

	apitest.New().
		Handler(m.Handler(whoami())).
		Get("/").
		Cookie(httpauth.CookieName, "good").
		Expect(t).
		Status(http.StatusOK).
		Body("a@b.com").
		CookieNotPresent(httpauth.CookieName).
		End()
}

func TestMiddleware_RenewedSessionResendsCookie(t *testing.T) {
	expires := now.Add(auth.SessionTTL)
	m := newMiddleware(t, stubValidator{results: map[string]auth.Validation{
		"good": validation(true, expires),
	}})

	apitest.New().
		Handler(m.Handler(whoami())).
		Get("/").
		Cookie(httpauth.CookieName, "good").
		Expect(t).
		Status(http.StatusOK).
		Cookies(apitest.NewCookie(httpauth.CookieName).
			Value("good").
			Path("/").
			HttpOnly(true).
			MaxAge(int(auth.SessionTTL.Seconds()))).
		End()
}

func TestMiddleware_StaleCookieIsCleared(t *testing.T) {
	m := newMiddleware(t, stubValidator{})

	apitest.New().
		Handler(m.Handler(whoami())).
		Get("/").
		Cookie(httpauth.CookieName, "expired-or-unknown").
		Expect(t).
		Status(http.StatusOK).
		Body("anonymous").
		Cookies(apitest.NewCookie(httpauth.CookieName).Value("").MaxAge(-1)).
		End()
}

func TestMiddleware_StorageFailure(t *testing.T) {
	m := newMiddleware(t, stubValidator{err: errors.New("connection refused")})

	apitest.New().
		Handler(m.Handler(whoami())).
		Get("/").
		Cookie(httpauth.CookieName, "good").
		Expect(t).
		Status(http.StatusServiceUnavailable).
		End()
}

func TestRequireAuth(t *testing.T) {
	m := newMiddleware(t, stubValidator{results: map[string]auth.Validation{
		"good": validation(false, now.Add(auth.SessionTTL)),
	}})
	protected := m.Handler(httpauth.RequireAuth(whoami()))

	apitest.Handler(protected).Get("/private").Expect(t).Status(http.StatusUnauthorized).End()
	apitest.Handler(protected).
		Get("/private").
		Cookie(httpauth.CookieName, "good").
		Expect(t).
		Status(http.StatusOK).
		Body("a@b.com").
		End()
}
