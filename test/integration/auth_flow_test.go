// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/robskinney/remix-auth-example/internal/auth"
	authpg "github.com/robskinney/remix-auth-example/internal/auth/postgres"
	"github.com/robskinney/remix-auth-example/internal/httpauth"
	"github.com/robskinney/remix-auth-example/internal/store"
)

// testEnv holds the database and the service wired over it.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	pool      *pgxpool.Pool
	now       atomic.Pointer[time.Time]
	service   *auth.Service
}

func (env *testEnv) clock() time.Time {
	return *env.now.Load()
}

func (env *testEnv) advance(d time.Duration) {
	next := env.clock().Add(d)
	env.now.Store(&next)
}

// setupTestEnv starts PostgreSQL, applies the schema and builds the service.
func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	env := &testEnv{ctx: ctx, cancel: cancel}
	start := time.Now().UTC().Truncate(time.Microsecond)
	env.now.Store(&start)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("remix_auth_test"),
		postgres.WithUsername("remix"),
		postgres.WithPassword("remix"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	env.pool, err = store.Connect(ctx, connStr, store.ConnectOptions{}, nil)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	users := authpg.NewUserDirectory(env.pool)
	manager, err := auth.NewSessionManager(authpg.NewSessionRepository(env.pool), users, auth.WithClock(env.clock))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	hasher, err := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Memory: 1024, Time: 1, Threads: 1})
	if err != nil {
		env.cleanup()
		return nil, err
	}
	hashPool, err := auth.NewHashPool(hasher, 4)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.service, err = auth.NewService(users, manager, hashPool)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	return env, nil
}

// truncate empties both tables between specs.
func (env *testEnv) truncate() {
	_, err := env.pool.Exec(env.ctx, "TRUNCATE users CASCADE")
	Expect(err).NotTo(HaveOccurred())
}

func (env *testEnv) sessionRows() int {
	var n int
	Expect(env.pool.QueryRow(env.ctx, "SELECT count(*) FROM sessions").Scan(&n)).To(Succeed())
	return n
}

// cleanup releases all test resources.
func (env *testEnv) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if env.pool != nil {
		env.pool.Close()
	}
	if env.container != nil {
		_ = env.container.Terminate(ctx)
	}
	env.cancel()
}

var _ = Describe("Signup and login", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if env != nil {
			env.cleanup()
		}
	})

	BeforeEach(func() {
		env.truncate()
	})

	jane := auth.SignupRequest{Email: "a@b.com", Name: "Jane Doe", Password: "secret1"}

	It("issues independent sessions for signup and login", func() {
		signedUp, err := env.service.Signup(env.ctx, jane)
		Expect(err).NotTo(HaveOccurred())

		loggedIn, err := env.service.Login(env.ctx, "a@b.com", "secret1")
		Expect(err).NotTo(HaveOccurred())
		Expect(loggedIn.User.ID).To(Equal(signedUp.User.ID))
		Expect(loggedIn.Token).NotTo(Equal(signedUp.Token))
		Expect(env.sessionRows()).To(Equal(2))

		Expect(env.service.Logout(env.ctx, signedUp.Token)).To(Succeed())

		v, err := env.service.Sessions().Validate(env.ctx, signedUp.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Authenticated()).To(BeFalse())

		v, err = env.service.Sessions().Validate(env.ctx, loggedIn.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Authenticated()).To(BeTrue())
		Expect(v.User.Name).To(Equal("Jane Doe"))
	})

	It("stores only the derived session id", func() {
		issued, err := env.service.Signup(env.ctx, jane)
		Expect(err).NotTo(HaveOccurred())

		var stored string
		Expect(env.pool.QueryRow(env.ctx, "SELECT id FROM sessions").Scan(&stored)).To(Succeed())
		Expect(stored).To(Equal(auth.DeriveSessionID(issued.Token)))
		Expect(stored).NotTo(Equal(issued.Token))
	})

	It("rejects a second signup with the same email", func() {
		_, err := env.service.Signup(env.ctx, jane)
		Expect(err).NotTo(HaveOccurred())

		_, err = env.service.Signup(env.ctx, auth.SignupRequest{Email: "a@b.com", Name: "Other", Password: "another1"})
		Expect(err).To(MatchError(auth.ErrDuplicateEmail))
		Expect(auth.KindOf(err)).To(Equal(auth.KindDuplicateEmail))
	})

	It("gives the same error for an unknown email and a wrong password", func() {
		_, err := env.service.Signup(env.ctx, jane)
		Expect(err).NotTo(HaveOccurred())

		_, wrongPassword := env.service.Login(env.ctx, "a@b.com", "secret2")
		_, unknownEmail := env.service.Login(env.ctx, "nobody@b.com", "secret1")

		Expect(wrongPassword).To(MatchError(auth.ErrInvalidCredentials))
		Expect(unknownEmail).To(MatchError(auth.ErrInvalidCredentials))
		Expect(wrongPassword.Error()).To(Equal(unknownEmail.Error()))
	})

	It("expires, renews and sweeps sessions", func() {
		issued, err := env.service.Signup(env.ctx, jane)
		Expect(err).NotTo(HaveOccurred())
		manager := env.service.Sessions()

		env.advance(auth.SessionTTL/2 + time.Hour)
		v, err := manager.Validate(env.ctx, issued.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Renewed).To(BeTrue())
		Expect(v.Session.ExpiresAt).To(BeTemporally("~", env.clock().Add(auth.SessionTTL), time.Millisecond))

		stale, err := env.service.Login(env.ctx, "a@b.com", "secret1")
		Expect(err).NotTo(HaveOccurred())

		env.advance(auth.SessionTTL)
		for range 2 {
			v, err = manager.Validate(env.ctx, issued.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Authenticated()).To(BeFalse())
		}
		Expect(env.sessionRows()).To(Equal(1), "expired session is reaped on validation")

		sweeper, err := auth.NewSweeper(manager, "")
		Expect(err).NotTo(HaveOccurred())
		n, err := sweeper.RunOnce(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))
		Expect(env.sessionRows()).To(BeZero())

		v, err = manager.Validate(env.ctx, stale.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Authenticated()).To(BeFalse())
	})

	It("drops sessions when their user is deleted", func() {
		issued, err := env.service.Signup(env.ctx, jane)
		Expect(err).NotTo(HaveOccurred())

		_, err = env.pool.Exec(env.ctx, "DELETE FROM users")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.sessionRows()).To(BeZero())

		v, err := env.service.Sessions().Validate(env.ctx, issued.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Authenticated()).To(BeFalse())
	})

	It("authenticates HTTP requests from the session cookie", func() {
		issued, err := env.service.Signup(env.ctx, jane)
		Expect(err).NotTo(HaveOccurred())

		cookies := httpauth.NewCookieTransport(httpauth.WithCookieClock(env.clock))
		middleware, err := httpauth.NewMiddleware(env.service.Sessions(), cookies, nil)
		Expect(err).NotTo(HaveOccurred())

		handler := middleware.Handler(httpauth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := httpauth.IdentityFrom(r.Context())
			_, _ = fmt.Fprint(w, id.User.Email)
		})))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))

		req = httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: httpauth.CookieName, Value: issued.Token})
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("a@b.com"))

		Expect(env.service.Logout(env.ctx, issued.Token)).To(Succeed())
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(rec.Header().Get("Set-Cookie")).To(ContainSubstring("Max-Age=0"))
	})
})
