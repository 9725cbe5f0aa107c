// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth_test

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/robskinney/remix-auth-example/internal/auth"
	"github.com/robskinney/remix-auth-example/pkg/errutil"
)

// blockingHasher counts concurrent calls and blocks until released.
type blockingHasher struct {
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func (h *blockingHasher) enter() {
	n := h.active.Add(1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-h.release
	h.active.Add(-1)
}

func (h *blockingHasher) Hash(password string) (string, error) {
	h.enter()
	return "hash:" + password, nil
}

func (h *blockingHasher) Verify(password, encodedHash string) bool {
	h.enter()
	return encodedHash == "hash:"+password
}

func TestNewHashPool(t *testing.T) {
	_, err := auth.NewHashPool(nil, 1)
	errutil.AssertErrorCode(t, err, "AUTH_NIL_HASHER")

	pool, err := auth.NewHashPool(fastHasher(t), 0)
	require.NoError(t, err)
	assert.Equal(t, runtime.GOMAXPROCS(0), pool.Size())
}

func TestHashPool_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	hasher := &blockingHasher{release: make(chan struct{})}
	pool, err := auth.NewHashPool(hasher, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := pool.Verify(context.Background(), "pw", "hash:pw")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}

	require.Eventually(t, func() bool { return hasher.active.Load() == 2 }, time.Second, time.Millisecond)
	close(hasher.release)
	wg.Wait()

	assert.Equal(t, int32(2), hasher.peak.Load())
}

func TestHashPool_CancelledWhileWaiting(t *testing.T) {
	defer goleak.VerifyNone(t)

	hasher := &blockingHasher{release: make(chan struct{})}
	pool, err := auth.NewHashPool(hasher, 1)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = pool.Hash(context.Background(), "first")
	}()
	require.Eventually(t, func() bool { return hasher.active.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Hash(ctx, "second")
	errutil.AssertErrorCode(t, err, "AUTH_HASH_CANCELLED")
	_, err = pool.Verify(ctx, "second", "x")
	errutil.AssertErrorCode(t, err, "AUTH_HASH_CANCELLED")

	close(hasher.release)
	<-done
}

func TestHashPool_DelegatesToHasher(t *testing.T) {
	pool, err := auth.NewHashPool(fastHasher(t), 1)
	require.NoError(t, err)
	ctx := context.Background()

	hash, err := pool.Hash(ctx, "secret1")
	require.NoError(t, err)

	ok, err := pool.Verify(ctx, "secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pool.Verify(ctx, "secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
