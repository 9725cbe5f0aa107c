// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package auth

import (
	"context"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// HashPool bounds the number of password hash computations running at once.
// Argon2id allocates its full memory cost per call, so unbounded concurrency
// under a login burst can exhaust the process.
type HashPool struct {
	hasher PasswordHasher
	slots  *semaphore.Weighted
	size   int
}

// NewHashPool wraps hasher so at most size computations run concurrently.
// A size of zero or less uses GOMAXPROCS.
func NewHashPool(hasher PasswordHasher, size int) (*HashPool, error) {
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_HASHER").Errorf("password hasher is required")
	}
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &HashPool{
		hasher: hasher,
		slots:  semaphore.NewWeighted(int64(size)),
		size:   size,
	}, nil
}

// Size returns the number of concurrent computations allowed.
func (p *HashPool) Size() int {
	return p.size
}

// Hash waits for a free slot and hashes password.
func (p *HashPool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELLED").With("operation", "acquire hash slot").Wrap(err)
	}
	defer p.slots.Release(1)

	return p.hasher.Hash(password) //nolint:wrapcheck // hasher errors already carry codes
}

// Verify waits for a free slot and verifies password against encodedHash.
// The error is non-nil only when ctx ends before a slot is free.
func (p *HashPool) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return false, oops.Code("AUTH_HASH_CANCELLED").With("operation", "acquire hash slot").Wrap(err)
	}
	defer p.slots.Release(1)

	return p.hasher.Verify(password, encodedHash), nil
}
