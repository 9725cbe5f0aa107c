// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/robskinney/remix-auth-example/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(errors.New("email is already registered"))
	errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_EMAIL")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", "01HZX").Errorf("insert failed")
	errutil.AssertErrorContext(t, err, "user_id", "01HZX")
}

func TestAssertErrorCodeIs_WrappedSentinel(t *testing.T) {
	errNotFound := errors.New("not found")
	err := oops.Code("SESSION_NOT_FOUND").With("operation", "get session").Wrap(errNotFound)
	errutil.AssertErrorCodeIs(t, err, errNotFound, "SESSION_NOT_FOUND")
}
