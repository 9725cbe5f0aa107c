// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/oops"

	"github.com/robskinney/remix-auth-example/internal/observability"
)

// DefaultSweepSchedule runs the expiry sweep at the top of every hour.
const DefaultSweepSchedule = "@hourly"

// defaultSweepTimeout bounds a single sweep run.
const defaultSweepTimeout = time.Minute

// SessionReaper deletes sessions that have expired. SessionManager
// implements it.
type SessionReaper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically deletes expired sessions. Expiry is also enforced
// lazily on validation, so the sweeper only bounds table growth.
type Sweeper struct {
	reaper  SessionReaper
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *observability.AuthMetrics
	timeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepLogger sets the sweeper logger.
func WithSweepLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithSweepMetrics counts swept rows in metrics.
func WithSweepMetrics(metrics *observability.AuthMetrics) SweeperOption {
	return func(s *Sweeper) {
		s.metrics = metrics
	}
}

// WithSweepTimeout bounds each run. Defaults to one minute.
func WithSweepTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.timeout = d
	}
}

// NewSweeper creates a Sweeper running on schedule, a standard five-field
// cron expression or descriptor such as "@every 10m". An empty schedule uses
// DefaultSweepSchedule.
func NewSweeper(reaper SessionReaper, schedule string, opts ...SweeperOption) (*Sweeper, error) {
	if reaper == nil {
		return nil, oops.Code("SWEEP_NIL_REAPER").Errorf("session reaper is required")
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	s := &Sweeper{
		reaper:  reaper,
		logger:  slog.Default(),
		timeout: defaultSweepTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("SWEEP_NIL_LOGGER").Errorf("logger is required")
	}

	cronLog := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, oops.Code("SWEEP_INVALID_SCHEDULE").
			With("schedule", schedule).
			Wrap(err)
	}
	return s, nil
}

// Start begins running sweeps in the background. Calling Start on a running
// sweeper is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.started = true
	s.cron.Start()
}

// Stop cancels any running sweep and waits for it to return, or for ctx to
// end.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return oops.Code("SWEEP_STOP_TIMEOUT").Wrap(ctx.Err())
	}
}

// RunOnce performs a single sweep and returns the number of deleted sessions.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.reaper.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.AddSwept(n)
	s.logger.InfoContext(ctx, "expired sessions swept",
		"deleted", n,
		"duration", time.Since(start),
	)
	return n, nil
}

func (s *Sweeper) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.ErrorContext(ctx, "session sweep failed",
			"operation", "sweep_sessions",
			"error", err,
		)
	}
}

// cronLogger adapts slog to the cron logging interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
