// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

// Package store connects to PostgreSQL and manages the schema.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions tunes Connect. Zero values use the defaults.
type ConnectOptions struct {
	// MaxConns caps the pool size. Defaults to the pgxpool default.
	MaxConns int32
	// Attempts is the number of pings before giving up. Defaults to 5.
	Attempts uint64
	// Backoff is the first retry delay, doubled per attempt up to 5s.
	// Defaults to 200ms.
	Backoff time.Duration
}

const (
	defaultConnectAttempts = 5
	defaultConnectBackoff  = 200 * time.Millisecond
	maxConnectBackoff      = 5 * time.Second
)

// Connect opens a pool for databaseURL and pings it until it answers.
// Retrying the initial connection is the only retry in the storage path;
// queries made through the pool are not retried.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_INVALID_URL").With("operation", "parse database url").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	attempts := opts.Attempts
	if attempts == 0 {
		attempts = defaultConnectAttempts
	}
	base := opts.Backoff
	if base <= 0 {
		base = defaultConnectBackoff
	}
	backoff := retry.WithCappedDuration(maxConnectBackoff, retry.NewExponential(base))
	backoff = retry.WithMaxRetries(attempts-1, backoff)

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database ping failed",
				"operation", "connect",
				"attempt", attempt,
				"error", pingErr,
			)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	return pool, nil
}
