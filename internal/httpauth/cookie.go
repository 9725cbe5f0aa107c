// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

// Package httpauth carries session tokens in cookies and resolves them to
// users for HTTP handlers.
package httpauth

import (
	"net/http"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// CookieTransport writes and reads the session cookie.
type CookieTransport struct {
	secure bool
	now    func() time.Time
}

// CookieOption configures a CookieTransport.
type CookieOption func(*CookieTransport)

// WithSecure marks cookies Secure so browsers only send them over HTTPS.
func WithSecure(secure bool) CookieOption {
	return func(c *CookieTransport) {
		c.secure = secure
	}
}

// WithCookieClock sets the time source used for Max-Age. Defaults to time.Now.
func WithCookieClock(now func() time.Time) CookieOption {
	return func(c *CookieTransport) {
		c.now = now
	}
}

// NewCookieTransport creates a CookieTransport.
func NewCookieTransport(opts ...CookieOption) *CookieTransport {
	c := &CookieTransport{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Secure reports whether cookies are marked Secure.
func (c *CookieTransport) Secure() bool {
	return c.secure
}

// cookie builds the session cookie for token. An empty token builds the
// clearing cookie.
func (c *CookieTransport) cookie(token string, expiresAt time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		return ck
	}
	ck.Expires = expiresAt.UTC()
	if maxAge := int(expiresAt.Sub(c.now()).Seconds()); maxAge > 0 {
		ck.MaxAge = maxAge
	} else {
		ck.MaxAge = -1
	}
	return ck
}

// Serialize returns the Set-Cookie header value carrying token until
// expiresAt.
func (c *CookieTransport) Serialize(token string, expiresAt time.Time) string {
	return c.cookie(token, expiresAt).String()
}

// SerializeClear returns the Set-Cookie header value that removes the
// session cookie.
func (c *CookieTransport) SerializeClear() string {
	return c.cookie("", time.Time{}).String()
}

// Parse extracts the session token from a Cookie request header. The second
// result is false when the header carries no non-empty session cookie.
func (c *CookieTransport) Parse(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// Fall back to the lenient per-cookie parser used by net/http.
		r := http.Request{Header: http.Header{"Cookie": {header}}}
		cookies = r.Cookies()
	}
	for _, ck := range cookies {
		if ck.Name == CookieName && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}

// Set writes the session cookie to w.
func (c *CookieTransport) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	w.Header().Add("Set-Cookie", c.Serialize(token, expiresAt))
}

// Clear writes a cookie to w that removes the session cookie.
func (c *CookieTransport) Clear(w http.ResponseWriter) {
	w.Header().Add("Set-Cookie", c.SerializeClear())
}

// Token returns the session token carried by r, if any.
func (c *CookieTransport) Token(r *http.Request) (string, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
