// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error whose innermost code is
// code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code())
}

// AssertErrorCodeIs asserts that err wraps target and carries code. Storage
// adapters use it to check that a driver error was translated into an auth
// sentinel under the expected code.
func AssertErrorCodeIs(t *testing.T, err, target error, code string) {
	t.Helper()
	require.ErrorIs(t, err, target)
	AssertErrorCode(t, err, code)
}

// AssertErrorContext asserts that err is an oops error carrying key=value in
// its merged context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	fields := requireOops(t, err).Context()
	require.Contains(t, fields, key)
	assert.Equal(t, value, fields[key])
}
