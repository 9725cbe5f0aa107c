// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

// Package redis implements auth.SessionRepository on Redis. Each session is
// a hash whose key expires with the session, so Redis reaps expired
// sessions itself.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/robskinney/remix-auth-example/internal/auth"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "remix-auth:session:"

const (
	fieldUserID    = "user_id"
	fieldExpiresAt = "expires_at"
)

// renewScript updates an existing session only; a concurrent delete wins.
var renewScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'expires_at', ARGV[1])
redis.call('PEXPIREAT', KEYS[1], ARGV[1])
return 1
`)

// SessionRepository implements auth.SessionRepository using Redis.
type SessionRepository struct {
	client goredis.UniversalClient
	prefix string
}

// NewSessionRepository creates a SessionRepository. An empty prefix uses
// DefaultKeyPrefix.
func NewSessionRepository(client goredis.UniversalClient, prefix string) *SessionRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionRepository{client: client, prefix: prefix}
}

func (r *SessionRepository) key(id string) string {
	return r.prefix + id
}

// Create stores a new session that expires at session.ExpiresAt.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	key := r.key(session.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldUserID, session.UserID.String(),
			fieldExpiresAt, session.ExpiresAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, key, session.ExpiresAt)
		return nil
	})
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "store session hash").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a session by its derived ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*auth.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session hash").
			Wrap(err)
	}
	if len(fields) == 0 {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}

	userID, err := ulid.Parse(fields[fieldUserID])
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").
			With("operation", "parse user id").
			With("user_id", fields[fieldUserID]).
			Wrap(err)
	}
	ms, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").
			With("operation", "parse expires_at").
			Wrap(err)
	}
	return &auth.Session{ID: id, UserID: userID, ExpiresAt: time.UnixMilli(ms)}, nil
}

// UpdateExpiry moves both the stored expiry and the key expiry.
func (r *SessionRepository) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	updated, err := renewScript.Run(ctx, r.client, []string{r.key(id)}, expiresAt.UnixMilli()).Int()
	if err != nil {
		return oops.Code("SESSION_UPDATE_FAILED").
			With("operation", "renew session hash").
			Wrap(err)
	}
	if updated == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session hash").
			Wrap(err)
	}
	if n == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired reports zero: keys expire with their sessions.
func (r *SessionRepository) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// Ping checks the connection, for readiness probes.
func (r *SessionRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return oops.Code("SESSION_STORE_UNAVAILABLE").Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
