// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robskinney/remix-auth-example/pkg/errutil"
)

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) Up() error   { return m.Called().Error(0) }
func (m *mockMigrator) Down() error { return m.Called().Error(0) }
func (m *mockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}
func (m *mockMigrator) Force(version int) error { return m.Called(version).Error(0) }
func (m *mockMigrator) Pending() ([]uint, error) {
	args := m.Called()
	pending, _ := args.Get(0).([]uint)
	return pending, args.Error(1)
}
func (m *mockMigrator) Close() error { return m.Called().Error(0) }

// useMigrator installs m as the migrator for the duration of the test.
func useMigrator(t *testing.T, m *mockMigrator) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/authd_test")
	m.On("Close").Return(nil)

	original := newMigrator
	newMigrator = func(url string) (migrator, error) {
		assert.Equal(t, "postgres://localhost/authd_test", url)
		return m, nil
	}
	t.Cleanup(func() {
		newMigrator = original
		m.AssertExpectations(t)
	})
}

func TestMigrateUp(t *testing.T) {
	m := &mockMigrator{}
	useMigrator(t, m)
	m.On("Pending").Return([]uint{1, 2}, nil).Once()
	m.On("Up").Return(nil).Once()

	out, err := execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 migration(s)")
}

func TestMigrateUp_NothingPending(t *testing.T) {
	m := &mockMigrator{}
	useMigrator(t, m)
	m.On("Pending").Return([]uint(nil), nil).Once()

	out, err := execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")
	m.AssertNotCalled(t, "Up")
}

func TestMigrateUp_Failure(t *testing.T) {
	m := &mockMigrator{}
	useMigrator(t, m)
	m.On("Pending").Return([]uint{1}, nil).Once()
	m.On("Up").Return(errors.New("syntax error")).Once()

	_, err := execute(t, "migrate", "up")
	assert.Error(t, err)
}

func TestMigrateDown_RequiresConfirmation(t *testing.T) {
	m := &mockMigrator{}
	useMigrator(t, m)

	_, err := execute(t, "migrate", "down")
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")
	m.AssertNotCalled(t, "Down")

	m.On("Down").Return(nil).Once()
	out, err := execute(t, "migrate", "down", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Rolled back all migrations")
}

func TestMigrateVersion(t *testing.T) {
	m := &mockMigrator{}
	useMigrator(t, m)
	m.On("Version").Return(uint(1), true, nil).Once()
	m.On("Pending").Return([]uint{2}, nil).Once()

	out, err := execute(t, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1 (dirty), 1 pending")
}

func TestMigrateForce(t *testing.T) {
	m := &mockMigrator{}
	useMigrator(t, m)
	m.On("Force", 2).Return(nil).Once()

	out, err := execute(t, "migrate", "force", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Forced version 2")

	_, err = execute(t, "migrate", "force", "two")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "migrate", "up")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
		wantErrCode string
	}{
		{
			name:        "valid integer",
			input:       "3",
			wantVersion: 3,
		},
		{
			name:        "zero is valid",
			input:       "0",
			wantVersion: 0,
		},
		{
			name:        "non-numeric returns error",
			input:       "abc",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "trailing chars are ignored (Sscanf stops at non-digit)",
			input:       "3abc",
			wantVersion: 3,
		},
		{
			name:        "negative parses; the migrator rejects it",
			input:       "-1",
			wantVersion: -1,
		},
		{
			name:        "empty string returns error",
			input:       "",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "whitespace only returns error",
			input:       "   ",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "leading whitespace is handled",
			input:       "  42",
			wantVersion: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantErrCode)
				assert.Equal(t, 0, version)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantVersion, version)
			}
		})
	}
}
