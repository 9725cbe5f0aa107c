// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/robskinney/remix-auth-example/internal/auth"
	authpg "github.com/robskinney/remix-auth-example/internal/auth/postgres"
	authredis "github.com/robskinney/remix-auth-example/internal/auth/redis"
	"github.com/robskinney/remix-auth-example/internal/config"
	"github.com/robskinney/remix-auth-example/internal/httpauth"
	"github.com/robskinney/remix-auth-example/internal/logging"
	"github.com/robskinney/remix-auth-example/internal/observability"
	"github.com/robskinney/remix-auth-example/internal/store"
)

// loadConfig resolves and validates configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger for component and installs it as the
// default.
func newLogger(cfg *config.Config, component string) *slog.Logger {
	return logging.SetDefault(logging.Options{
		Service: "authd",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}).With("component", component)
}

// newCookieTransport builds the session cookie transport from cfg.
func newCookieTransport(cfg *config.Config) *httpauth.CookieTransport {
	return httpauth.NewCookieTransport(httpauth.WithSecure(cfg.Cookie.Secure))
}

// backend holds the storage handles shared by the subcommands.
type backend struct {
	pool     *pgxpool.Pool
	redis    goredis.UniversalClient
	users    auth.UserDirectory
	sessions auth.SessionRepository
	logger   *slog.Logger
}

// openBackend connects to PostgreSQL, and to redis when it holds sessions.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	pool, err := store.Connect(ctx, cfg.DatabaseURL, store.ConnectOptions{}, logger)
	if err != nil {
		return nil, err
	}
	b := &backend{
		pool:   pool,
		users:  authpg.NewUserDirectory(pool),
		logger: logger,
	}

	switch cfg.SessionBackend {
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		repo := authredis.NewSessionRepository(client, cfg.Redis.Prefix)
		if err := repo.Ping(ctx); err != nil {
			_ = client.Close()
			pool.Close()
			return nil, err
		}
		b.redis = client
		b.sessions = repo
	default:
		b.sessions = authpg.NewSessionRepository(pool)
	}

	logger.Info("storage connected", "session_backend", cfg.SessionBackend)
	return b, nil
}

// sessionManager builds a SessionManager over the backend.
func (b *backend) sessionManager(metrics *observability.AuthMetrics) (*auth.SessionManager, error) {
	return auth.NewSessionManager(b.sessions, b.users,
		auth.WithSessionLogger(b.logger),
		auth.WithSessionMetrics(metrics),
	)
}

// service builds the auth Service with the configured hasher.
func (b *backend) service(cfg *config.Config, metrics *observability.AuthMetrics) (*auth.Service, error) {
	manager, err := b.sessionManager(metrics)
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewArgon2idHasherWithParams(cfg.Hasher.Params())
	if err != nil {
		return nil, err
	}
	pool, err := auth.NewHashPool(hasher, cfg.Hasher.Concurrency)
	if err != nil {
		return nil, err
	}
	return auth.NewService(b.users, manager, pool,
		auth.WithLogger(b.logger),
		auth.WithMetrics(metrics),
	)
}

// ready reports whether every store answers.
func (b *backend) ready(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return oops.Code("POSTGRES_UNAVAILABLE").Wrap(err)
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return oops.Code("REDIS_UNAVAILABLE").Wrap(err)
		}
	}
	return nil
}

// Close releases the connections.
func (b *backend) Close() {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			b.logger.Debug("error closing redis client", "error", err)
		}
	}
	b.pool.Close()
}
