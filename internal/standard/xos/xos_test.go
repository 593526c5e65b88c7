// Copyright 2026 Peter Edge
//
// All rights reserved.

package xos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	t.Parallel()
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	path, err := ExpandHome("~/data/file.csv")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(homeDir, "data", "file.csv"), path)
	path, err = ExpandHome("~other/file.csv")
	require.NoError(t, err)
	require.Equal(t, "~other/file.csv", path)
	path, err = ExpandHome("relative/file.csv")
	require.NoError(t, err)
	require.Equal(t, "relative/file.csv", path)
}

func TestResolvePath(t *testing.T) {
	t.Parallel()
	baseDirPath := t.TempDir()
	path, err := ResolvePath(baseDirPath, "exports/../degiro.csv")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(baseDirPath, "degiro.csv"), path)
	absPath := filepath.Join(baseDirPath, "ibkr.csv")
	path, err = ResolvePath("/elsewhere", absPath)
	require.NoError(t, err)
	require.Equal(t, absPath, path)
}
