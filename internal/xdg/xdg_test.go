// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDir_EnvVar(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/remix-auth", ConfigDir())
}

func TestConfigDir_Fallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/jane")
	assert.Equal(t, "/home/jane/.config/remix-auth", ConfigDir())
}

func TestStateDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	assert.Equal(t, "/custom/state/remix-auth", StateDir())

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/jane")
	assert.Equal(t, "/home/jane/.local/state/remix-auth", StateDir())
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	require.NoError(t, EnsureDir(dir), "existing directory is fine")
}
