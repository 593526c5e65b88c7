// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xos provides extensions to the standard os package.
package xos

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading "~" or "~/" in a path to the user's home directory.
//
// Paths of the form "~user" are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// ResolvePath returns path as an absolute, cleaned path.
//
// A leading "~" is expanded first. Relative paths are interpreted relative to baseDirPath.
func ResolvePath(baseDirPath string, path string) (string, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDirPath, path)
	}
	return filepath.Abs(path)
}
