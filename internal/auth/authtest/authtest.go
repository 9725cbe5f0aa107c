// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

// Package authtest provides in-memory auth repositories and a manual clock
// for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/robskinney/remix-auth-example/internal/auth"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock reading start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Users is an in-memory auth.UserDirectory.
type Users struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]auth.User
	byEmail map[string]ulid.ULID
}

// NewUsers creates an empty Users directory.
func NewUsers() *Users {
	return &Users{
		byID:    make(map[ulid.ULID]auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// FindByEmail implements auth.UserDirectory.
func (u *Users) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	id, ok := u.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	user := u.byID[id]
	return &user, nil
}

// GetByID implements auth.UserDirectory.
func (u *Users) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &user, nil
}

// Insert implements auth.UserDirectory.
func (u *Users) Insert(_ context.Context, user *auth.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, taken := u.byEmail[user.Email]; taken {
		return oops.Code("USER_EMAIL_TAKEN").Wrap(auth.ErrDuplicateEmail)
	}
	u.byID[user.ID] = *user
	u.byEmail[user.Email] = user.ID
	return nil
}

// Remove deletes a user without touching its sessions.
func (u *Users) Remove(id ulid.ULID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.byID[id]; ok {
		delete(u.byEmail, user.Email)
		delete(u.byID, id)
	}
}

// Len returns the number of stored users.
func (u *Users) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.byID)
}

// Sessions is an in-memory auth.SessionRepository.
type Sessions struct {
	mu   sync.RWMutex
	rows map[string]auth.Session
}

// NewSessions creates an empty Sessions repository.
func NewSessions() *Sessions {
	return &Sessions{rows: make(map[string]auth.Session)}
}

// Create implements auth.SessionRepository.
func (s *Sessions) Create(_ context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[session.ID]; exists {
		return oops.Code("SESSION_EXISTS").Errorf("session already exists")
	}
	s.rows[session.ID] = *session
	return nil
}

// GetByID implements auth.SessionRepository.
func (s *Sessions) GetByID(_ context.Context, id string) (*auth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.rows[id]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &session, nil
}

// UpdateExpiry implements auth.SessionRepository.
func (s *Sessions) UpdateExpiry(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.rows[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	session.ExpiresAt = expiresAt
	s.rows[id] = session
	return nil
}

// Delete implements auth.SessionRepository.
func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	delete(s.rows, id)
	return nil
}

// DeleteExpired implements auth.SessionRepository.
func (s *Sessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, session := range s.rows {
		if session.IsExpiredAt(now) {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

// Has reports whether a session row with id exists.
func (s *Sessions) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[id]
	return ok
}

// Get returns a copy of the stored row for id.
func (s *Sessions) Get(id string) (auth.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.rows[id]
	return session, ok
}

// Len returns the number of stored sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

var (
	_ auth.UserDirectory     = (*Users)(nil)
	_ auth.SessionRepository = (*Sessions)(nil)
)
